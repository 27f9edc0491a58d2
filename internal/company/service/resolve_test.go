package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"

	"go.uber.org/mock/gomock"

	"cadastro/internal/company/models"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestResolveRejectsInvalidTaxID() {
	for _, raw := range []string{"", "123", "11222333000182", "11111111111111", "abc"} {
		_, err := s.service.Resolve(s.ctx, raw)
		s.requireCode(err, dErrors.CodeInvalidInput)
	}
}

func (s *ServiceSuite) TestResolveCacheHit() {
	cached := []byte(`{"cnpj":"11222333000181","anything":"as stored"}`)
	s.mockCache.EXPECT().Get(gomock.Any(), validTaxKey).Return(cached, nil)

	res, err := s.service.Resolve(s.ctx, formattedTaxID)
	s.Require().NoError(err)
	s.Equal(models.SourceCache, res.Source)
	s.Equal(string(cached), string(res.Body))
}

func (s *ServiceSuite) TestResolveStoreHit() {
	s.Run("returns persisted view and caches it", func() {
		s.mockCache.EXPECT().Get(gomock.Any(), validTaxKey).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().FindByTaxID(gomock.Any(), validTaxID).Return(s.newCompany(7, validTaxID), nil)

		var stored []byte
		s.mockCache.EXPECT().Set(gomock.Any(), validTaxKey, gomock.Any(), DefaultCacheTTL).
			DoAndReturn(func(_ any, _ string, value []byte, _ any) error {
				stored = value
				return nil
			})

		res, err := s.service.Resolve(s.ctx, string(validTaxID))
		s.Require().NoError(err)
		s.Equal(models.SourceStore, res.Source)
		s.JSONEq(`{
			"cnpj":"11222333000181","razao_social":"ACME LTDA","nome_fantasia":"Acme",
			"situacao_cadastral":"ATIVA","cnae_fiscal":"6201501","municipio":"SAO PAULO","uf":"SP"
		}`, string(res.Body))
		s.Equal(string(res.Body), string(stored))
	})

	s.Run("cache read failure is treated as a miss", func() {
		s.mockCache.EXPECT().Get(gomock.Any(), validTaxKey).Return(nil, errors.New("redis down"))
		s.mockStore.EXPECT().FindByTaxID(gomock.Any(), validTaxID).Return(s.newCompany(7, validTaxID), nil)
		s.mockCache.EXPECT().Set(gomock.Any(), validTaxKey, gomock.Any(), DefaultCacheTTL).Return(errors.New("redis down"))

		res, err := s.service.Resolve(s.ctx, string(validTaxID))
		s.Require().NoError(err)
		s.Equal(models.SourceStore, res.Source)
	})

	s.Run("store failure is internal", func() {
		s.mockCache.EXPECT().Get(gomock.Any(), validTaxKey).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().FindByTaxID(gomock.Any(), validTaxID).Return(nil, errors.New("connection reset"))

		_, err := s.service.Resolve(s.ctx, string(validTaxID))
		s.requireCode(err, dErrors.CodeInternal)
	})
}

func (s *ServiceSuite) TestResolveRegistry() {
	s.Run("success upserts subset and caches full payload", func() {
		payload := json.RawMessage(`{"cnpj":"11222333000181","nome":"ACME LTDA","situacao":"ATIVA",
			"cnae_fiscal":6201501,"municipio":"SAO PAULO","uf":"SP","socios":[{"nome":"X"}]}`)

		s.mockCache.EXPECT().Get(gomock.Any(), validTaxKey).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().FindByTaxID(gomock.Any(), validTaxID).Return(nil, sentinel.ErrNotFound)
		s.mockReg.EXPECT().Fetch(gomock.Any(), validTaxID).Return(payload, nil)
		s.mockStore.EXPECT().Upsert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, rec models.Record) (*models.Company, error) {
				s.Equal(validTaxID, rec.TaxID)
				s.Equal("ACME LTDA", rec.LegalName)
				s.Equal("ATIVA", *rec.RegistrationStatus)
				s.Equal("6201501", *rec.PrimaryActivityCode)
				s.Nil(rec.TradeName)
				return s.newCompany(1, validTaxID), nil
			})
		s.mockCache.EXPECT().Set(gomock.Any(), validTaxKey, []byte(payload), DefaultCacheTTL).Return(nil)

		res, err := s.service.Resolve(s.ctx, string(validTaxID))
		s.Require().NoError(err)
		s.Equal(models.SourceRegistry, res.Source)
		s.JSONEq(string(payload), string(res.Body))
	})

	s.Run("upstream not found is not cached or stored", func() {
		s.mockCache.EXPECT().Get(gomock.Any(), validTaxKey).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().FindByTaxID(gomock.Any(), validTaxID).Return(nil, sentinel.ErrNotFound)
		s.mockReg.EXPECT().Fetch(gomock.Any(), validTaxID).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Resolve(s.ctx, string(validTaxID))
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("transport failure is upstream unavailable", func() {
		s.mockCache.EXPECT().Get(gomock.Any(), validTaxKey).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().FindByTaxID(gomock.Any(), validTaxID).Return(nil, sentinel.ErrNotFound)
		s.mockReg.EXPECT().Fetch(gomock.Any(), validTaxID).Return(nil, sentinel.ErrUnavailable)

		var logs bytes.Buffer
		svc := New(s.mockStore, s.mockCache, s.mockReg, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

		_, err := svc.Resolve(s.ctx, string(validTaxID))
		s.requireCode(err, dErrors.CodeUpstreamUnavailable)
		s.Contains(logs.String(), "tax_id="+formattedTaxID)
	})

	s.Run("payload with unexpected field types is upstream unavailable", func() {
		s.mockCache.EXPECT().Get(gomock.Any(), validTaxKey).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().FindByTaxID(gomock.Any(), validTaxID).Return(nil, sentinel.ErrNotFound)
		s.mockReg.EXPECT().Fetch(gomock.Any(), validTaxID).Return(json.RawMessage(`{"razao_social":42}`), nil)

		_, err := s.service.Resolve(s.ctx, string(validTaxID))
		s.requireCode(err, dErrors.CodeUpstreamUnavailable)
	})

	s.Run("upsert failure is internal and not cached", func() {
		s.mockCache.EXPECT().Get(gomock.Any(), validTaxKey).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().FindByTaxID(gomock.Any(), validTaxID).Return(nil, sentinel.ErrNotFound)
		s.mockReg.EXPECT().Fetch(gomock.Any(), validTaxID).Return(json.RawMessage(`{"razao_social":"ACME"}`), nil)
		s.mockStore.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full"))

		_, err := s.service.Resolve(s.ctx, string(validTaxID))
		s.requireCode(err, dErrors.CodeInternal)
	})
}
