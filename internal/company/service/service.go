package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"cadastro/internal/audit"
	"cadastro/internal/company/metrics"
	"cadastro/internal/company/models"
	id "cadastro/pkg/domain"
)

// Store persists the minimal company subset.
// Error contract: lookups and mutations of absent rows return sentinel.ErrNotFound;
// a tax id collision on Update returns sentinel.ErrConflict.
type Store interface {
	FindByTaxID(ctx context.Context, taxID id.TaxID) (*models.Company, error)
	FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error)
	Upsert(ctx context.Context, rec models.Record) (*models.Company, error)
	Update(ctx context.Context, companyID id.CompanyID, patch models.Patch) (*models.Company, error)
	Delete(ctx context.Context, companyID id.CompanyID) (*models.Company, error)
	List(ctx context.Context, offset, limit int) ([]models.Company, error)
	Count(ctx context.Context) (int, error)
}

// Cache holds encoded lookup responses. Get returns sentinel.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Registry fetches the full upstream payload for a tax id.
// A non-success upstream answer is sentinel.ErrNotFound; anything else is a failure.
type Registry interface {
	Fetch(ctx context.Context, taxID id.TaxID) (json.RawMessage, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	DefaultCacheTTL = 300 * time.Second

	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Service resolves companies through cache, store and registry in that order,
// and keeps the cache in step with writes.
type Service struct {
	store    Store
	cache    Cache
	registry Registry
	cacheTTL time.Duration
	logger   *slog.Logger
	audit    AuditPublisher
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCacheTTL sets how long lookup results stay cached. Non-positive values keep the default.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func New(store Store, cache Cache, registry Registry, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		cache:    cache,
		registry: registry,
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}
