package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cadastro/internal/company/models"
	id "cadastro/pkg/domain"
	"cadastro/pkg/platform/sentinel"
)

// InMemoryStore keeps companies in process memory. It is the default backend
// when no database is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.CompanyID]*models.Company
	byTaxID map[id.TaxID]id.CompanyID
	nextID  id.CompanyID
	clock   func() time.Time
}

type InMemoryOption func(*InMemoryStore)

// WithClock overrides time.Now for timestamps.
func WithClock(clock func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		byID:    make(map[id.CompanyID]*models.Company),
		byTaxID: make(map[id.TaxID]id.CompanyID),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) FindByTaxID(_ context.Context, taxID id.TaxID) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	companyID, ok := s.byTaxID[taxID]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", taxID, sentinel.ErrNotFound)
	}
	c := *s.byID[companyID]
	return &c, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, companyID id.CompanyID) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[companyID]
	if !ok {
		return nil, fmt.Errorf("company %d: %w", companyID, sentinel.ErrNotFound)
	}
	out := *c
	return &out, nil
}

// Upsert inserts rec or overwrites every column of the existing row with the same TaxID.
func (s *InMemoryStore) Upsert(_ context.Context, rec models.Record) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if existingID, ok := s.byTaxID[rec.TaxID]; ok {
		c := s.byID[existingID]
		applyRecord(c, rec)
		c.UpdatedAt = now
		out := *c
		return &out, nil
	}

	s.nextID++
	c := &models.Company{ID: s.nextID, CreatedAt: now, UpdatedAt: now}
	applyRecord(c, rec)
	s.byID[c.ID] = c
	s.byTaxID[c.TaxID] = c.ID
	out := *c
	return &out, nil
}

func (s *InMemoryStore) Update(_ context.Context, companyID id.CompanyID, patch models.Patch) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[companyID]
	if !ok {
		return nil, fmt.Errorf("company %d: %w", companyID, sentinel.ErrNotFound)
	}
	if patch.TaxID != nil && *patch.TaxID != c.TaxID {
		if _, taken := s.byTaxID[*patch.TaxID]; taken {
			return nil, fmt.Errorf("tax id %s already registered: %w", *patch.TaxID, sentinel.ErrConflict)
		}
	}

	oldTaxID := c.TaxID
	patch.Apply(c)
	c.UpdatedAt = s.clock()
	if c.TaxID != oldTaxID {
		delete(s.byTaxID, oldTaxID)
		s.byTaxID[c.TaxID] = c.ID
	}
	out := *c
	return &out, nil
}

// Delete removes the row and returns it as it was.
func (s *InMemoryStore) Delete(_ context.Context, companyID id.CompanyID) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[companyID]
	if !ok {
		return nil, fmt.Errorf("company %d: %w", companyID, sentinel.ErrNotFound)
	}
	delete(s.byID, companyID)
	delete(s.byTaxID, c.TaxID)
	return c, nil
}

// List returns a page ordered by most recently updated first.
func (s *InMemoryStore) List(_ context.Context, offset, limit int) ([]models.Company, error) {
	s.mu.RLock()
	all := make([]models.Company, 0, len(s.byID))
	for _, c := range s.byID {
		all = append(all, *c)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if offset < 0 || limit <= 0 || offset >= len(all) {
		return []models.Company{}, nil
	}
	end := offset + min(limit, len(all)-offset)
	return all[offset:end], nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func applyRecord(c *models.Company, rec models.Record) {
	c.TaxID = rec.TaxID
	c.LegalName = rec.LegalName
	c.TradeName = rec.TradeName
	c.RegistrationStatus = rec.RegistrationStatus
	c.PrimaryActivityCode = rec.PrimaryActivityCode
	c.City = rec.City
	c.State = rec.State
}
