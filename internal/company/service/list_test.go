package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cadastro/internal/company/cache"
	"cadastro/internal/company/models"
	"cadastro/internal/company/store"
	dErrors "cadastro/pkg/domain-errors"
)

func (s *ServiceSuite) TestList() {
	s.Run("defaults page and limit", func() {
		s.mockStore.EXPECT().List(gomock.Any(), 0, 10).Return([]models.Company{*s.newCompany(1, validTaxID)}, nil)
		s.mockStore.EXPECT().Count(gomock.Any()).Return(21, nil)

		page, err := s.service.List(s.ctx, 0, -5)
		s.Require().NoError(err)
		s.Len(page.Data, 1)
		s.Equal(models.Pagination{Page: 1, Limit: 10, Total: 21, TotalPages: 3}, page.Pagination)
	})

	s.Run("offset follows page and limit is capped", func() {
		s.mockStore.EXPECT().List(gomock.Any(), 200, 100).Return(nil, nil)
		s.mockStore.EXPECT().Count(gomock.Any()).Return(150, nil)

		page, err := s.service.List(s.ctx, 3, 500)
		s.Require().NoError(err)
		s.NotNil(page.Data)
		s.Empty(page.Data)
		s.Equal(2, page.Pagination.TotalPages)
		s.Equal(100, page.Pagination.Limit)
	})

	s.Run("empty store has zero pages", func() {
		s.mockStore.EXPECT().List(gomock.Any(), 0, 10).Return([]models.Company{}, nil)
		s.mockStore.EXPECT().Count(gomock.Any()).Return(0, nil)

		page, err := s.service.List(s.ctx, 1, 10)
		s.Require().NoError(err)
		s.Equal(0, page.Pagination.TotalPages)
	})

	s.Run("huge page does not overflow the offset", func() {
		maxPage := math.MaxInt / 10
		s.mockStore.EXPECT().List(gomock.Any(), (maxPage-1)*10, 10).Return([]models.Company{}, nil)
		s.mockStore.EXPECT().Count(gomock.Any()).Return(3, nil)

		page, err := s.service.List(s.ctx, math.MaxInt, 10)
		s.Require().NoError(err)
		s.Empty(page.Data)
		s.Equal(maxPage, page.Pagination.Page)
	})

	s.Run("count failure is internal", func() {
		s.mockStore.EXPECT().List(gomock.Any(), 0, 10).Return([]models.Company{}, nil).AnyTimes()
		s.mockStore.EXPECT().Count(gomock.Any()).Return(0, errors.New("timeout"))

		_, err := s.service.List(s.ctx, 1, 10)
		s.requireCode(err, dErrors.CodeInternal)
	})
}

func TestListHugePageOverMemoryStore(t *testing.T) {
	ctx := context.Background()
	companies := store.NewInMemory()
	_, err := companies.Upsert(ctx, models.Record{TaxID: validTaxID, LegalName: "ACME LTDA"})
	require.NoError(t, err)

	svc := New(companies, cache.NewMemory(DefaultCacheTTL), nil,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	for _, limit := range []int{1, 10, 100} {
		page, err := svc.List(ctx, math.MaxInt, limit)
		require.NoError(t, err)
		assert.Empty(t, page.Data)
		assert.Equal(t, 1, page.Pagination.Total)
	}
}
