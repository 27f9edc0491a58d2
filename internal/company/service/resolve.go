package service

import (
	"context"
	"encoding/json"
	"errors"

	"cadastro/internal/audit"
	"cadastro/internal/company/cache"
	"cadastro/internal/company/models"
	id "cadastro/pkg/domain"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/sentinel"
)

// Resolve returns the record for raw, trying the cache, then the store, then
// the external registry. The body of each tier is returned as that tier holds
// it: cached bytes verbatim, the persisted view, or the full upstream payload.
func (s *Service) Resolve(ctx context.Context, raw string) (*models.LookupResult, error) {
	taxID, err := id.ParseTaxID(raw)
	if err != nil {
		s.searchFailed(ctx, raw, "invalid")
		return nil, err
	}
	key := cache.Key(taxID)

	if body, ok := s.cached(ctx, key); ok {
		return s.searchSucceeded(ctx, taxID, models.SourceCache, body), nil
	}

	company, err := s.store.FindByTaxID(ctx, taxID)
	switch {
	case err == nil:
		body, err := json.Marshal(company.View())
		if err != nil {
			s.searchFailed(ctx, raw, "store")
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode company")
		}
		s.remember(ctx, key, body)
		return s.searchSucceeded(ctx, taxID, models.SourceStore, body), nil
	case !errors.Is(err, sentinel.ErrNotFound):
		s.searchFailed(ctx, raw, "store")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
	}

	payload, err := s.registry.Fetch(ctx, taxID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.searchFailed(ctx, raw, "not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		s.logger.ErrorContext(ctx, "registry lookup failed", "tax_id", taxID.Formatted(), "error", err)
		s.searchFailed(ctx, raw, "upstream")
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "registry unavailable")
	}

	var upstream models.RegistryPayload
	if err := json.Unmarshal(payload, &upstream); err != nil {
		s.searchFailed(ctx, raw, "upstream")
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "unexpected registry payload")
	}
	if _, err := s.store.Upsert(ctx, upstream.Record(taxID)); err != nil {
		s.searchFailed(ctx, raw, "store")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save company")
	}
	s.remember(ctx, key, payload)
	return s.searchSucceeded(ctx, taxID, models.SourceRegistry, payload), nil
}

// cached reads key; any failure other than a miss is logged and treated as one.
func (s *Service) cached(ctx context.Context, key string) ([]byte, bool) {
	body, err := s.cache.Get(ctx, key)
	if err == nil {
		return body, true
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	return nil, false
}

func (s *Service) remember(ctx context.Context, key string, body []byte) {
	if err := s.cache.Set(ctx, key, body, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

func (s *Service) searchSucceeded(ctx context.Context, taxID id.TaxID, source models.Source, body []byte) *models.LookupResult {
	s.metrics.IncrementLookup(string(source))
	s.emit(ctx, audit.Event{
		Type:    audit.EventCompanySearched,
		Subject: taxID.String(),
		Source:  string(source),
	})
	return &models.LookupResult{Source: source, Body: body}
}

func (s *Service) searchFailed(ctx context.Context, raw, reason string) {
	s.metrics.IncrementLookupFailure(reason)
	s.emit(ctx, audit.Event{
		Type:    audit.EventCompanySearchFailed,
		Subject: raw,
		Reason:  reason,
	})
}
