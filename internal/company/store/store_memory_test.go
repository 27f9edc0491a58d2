package store

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cadastro/internal/company/models"
	id "cadastro/pkg/domain"
	"cadastro/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemory(WithClock(func() time.Time {
		s.now = s.now.Add(time.Second)
		return s.now
	}))
}

func strPtr(v string) *string { return &v }

func record(taxID, name string) models.Record {
	return models.Record{TaxID: id.TaxID(taxID), LegalName: name, State: strPtr("SP")}
}

func (s *InMemoryStoreSuite) TestUpsert() {
	s.Run("inserts new record with generated id", func() {
		c, err := s.store.Upsert(s.ctx, record("11222333000181", "Acme"))
		s.Require().NoError(err)
		s.Equal(id.CompanyID(1), c.ID)
		s.Equal("Acme", c.LegalName)
		s.Equal(c.CreatedAt, c.UpdatedAt)
	})

	s.Run("same tax id overwrites and keeps id", func() {
		first, err := s.store.FindByTaxID(s.ctx, "11222333000181")
		s.Require().NoError(err)

		rec := record("11222333000181", "Acme Renamed")
		rec.State = nil
		c, err := s.store.Upsert(s.ctx, rec)
		s.Require().NoError(err)
		s.Equal(first.ID, c.ID)
		s.Equal("Acme Renamed", c.LegalName)
		s.Nil(c.State)
		s.Equal(first.CreatedAt, c.CreatedAt)
		s.True(c.UpdatedAt.After(first.UpdatedAt))

		n, err := s.store.Count(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, n)
	})
}

func (s *InMemoryStoreSuite) TestFind() {
	created, err := s.store.Upsert(s.ctx, record("11222333000181", "Acme"))
	s.Require().NoError(err)

	s.Run("by id returns copy", func() {
		c, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		c.LegalName = "mutated"

		again, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal("Acme", again.LegalName)
	})

	s.Run("missing id is not found", func() {
		_, err := s.store.FindByID(s.ctx, 99)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("missing tax id is not found", func() {
		_, err := s.store.FindByTaxID(s.ctx, "33000167000101")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestUpdate() {
	a, err := s.store.Upsert(s.ctx, record("11222333000181", "Acme"))
	s.Require().NoError(err)
	b, err := s.store.Upsert(s.ctx, record("33000167000101", "Beta"))
	s.Require().NoError(err)

	s.Run("applies patch and clears fields", func() {
		name := "Acme Ltda"
		updated, err := s.store.Update(s.ctx, a.ID, models.Patch{
			LegalName: &name,
			State:     models.Field{Set: true},
			City:      models.Field{Set: true, Value: strPtr("Campinas")},
		})
		s.Require().NoError(err)
		s.Equal("Acme Ltda", updated.LegalName)
		s.Nil(updated.State)
		s.Equal("Campinas", *updated.City)
		s.True(updated.UpdatedAt.After(a.UpdatedAt))
	})

	s.Run("changing tax id reindexes", func() {
		newTaxID := id.TaxID("00000000000191")
		_, err := s.store.Update(s.ctx, a.ID, models.Patch{TaxID: &newTaxID})
		s.Require().NoError(err)

		_, err = s.store.FindByTaxID(s.ctx, "11222333000181")
		s.ErrorIs(err, sentinel.ErrNotFound)
		c, err := s.store.FindByTaxID(s.ctx, newTaxID)
		s.Require().NoError(err)
		s.Equal(a.ID, c.ID)
	})

	s.Run("taken tax id is conflict", func() {
		taken := b.TaxID
		_, err := s.store.Update(s.ctx, a.ID, models.Patch{TaxID: &taken})
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("missing id is not found", func() {
		_, err := s.store.Update(s.ctx, 42, models.Patch{})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestDelete() {
	c, err := s.store.Upsert(s.ctx, record("11222333000181", "Acme"))
	s.Require().NoError(err)

	deleted, err := s.store.Delete(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.TaxID, deleted.TaxID)

	_, err = s.store.FindByTaxID(s.ctx, c.TaxID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Delete(s.ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListOrdersByMostRecentUpdate() {
	for _, taxID := range []string{"11222333000181", "33000167000101", "00000000000191"} {
		_, err := s.store.Upsert(s.ctx, record(taxID, taxID))
		s.Require().NoError(err)
	}
	// touching the first moves it to the front
	_, err := s.store.Upsert(s.ctx, record("11222333000181", "Acme"))
	s.Require().NoError(err)

	page, err := s.store.List(s.ctx, 0, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(id.TaxID("11222333000181"), page[0].TaxID)
	s.Equal(id.TaxID("00000000000191"), page[1].TaxID)

	rest, err := s.store.List(s.ctx, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(rest, 1)
	s.Equal(id.TaxID("33000167000101"), rest[0].TaxID)

	empty, err := s.store.List(s.ctx, 10, 2)
	s.Require().NoError(err)
	s.Empty(empty)

	negative, err := s.store.List(s.ctx, -20, 10)
	s.Require().NoError(err)
	s.Empty(negative)

	wide, err := s.store.List(s.ctx, 1, math.MaxInt)
	s.Require().NoError(err)
	s.Len(wide, 2)
}

func (s *InMemoryStoreSuite) TestConcurrentUpsertSameTaxID() {
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.store.Upsert(s.ctx, record("11222333000181", "Acme"))
		}()
	}
	wg.Wait()

	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}
