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

// Create upserts rec by tax id and refreshes its cache entry. The tax id is
// normalized first, so punctuated input lands under the same key as Resolve uses.
func (s *Service) Create(ctx context.Context, rec models.Record) (*models.CompanyView, error) {
	taxID, err := id.ParseTaxID(rec.TaxID.String())
	if err != nil {
		return nil, err
	}
	rec.TaxID = taxID
	if rec.LegalName == "" {
		return nil, dErrors.NewValidation("invalid payload",
			dErrors.FieldError{Field: "razaoSocial", Message: "legal name is required"})
	}

	company, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save company")
	}
	view := s.refresh(ctx, company)

	s.metrics.IncrementWrite("create")
	s.emit(ctx, audit.Event{Type: audit.EventCompanyCreated, Subject: company.TaxID.String()})
	return &view, nil
}

// Update applies patch to the company with companyID. The cache entry of the
// current tax id is refreshed; an entry under a previous tax id is left to expire.
func (s *Service) Update(ctx context.Context, companyID id.CompanyID, patch models.Patch) (*models.CompanyView, error) {
	if companyID <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid company id")
	}
	if patch.TaxID != nil {
		taxID, err := id.ParseTaxID(patch.TaxID.String())
		if err != nil {
			return nil, err
		}
		patch.TaxID = &taxID
	}
	if patch.LegalName != nil && *patch.LegalName == "" {
		return nil, dErrors.NewValidation("invalid payload",
			dErrors.FieldError{Field: "razaoSocial", Message: "legal name cannot be empty"})
	}

	company, err := s.store.Update(ctx, companyID, patch)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "tax id already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update company")
	}
	view := s.refresh(ctx, company)

	s.metrics.IncrementWrite("update")
	s.emit(ctx, audit.Event{Type: audit.EventCompanyUpdated, Subject: company.TaxID.String()})
	return &view, nil
}

// Delete removes the company and its cache entry.
func (s *Service) Delete(ctx context.Context, companyID id.CompanyID) error {
	if companyID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "invalid company id")
	}

	company, err := s.store.Delete(ctx, companyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete company")
	}

	key := cache.Key(company.TaxID)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "cache delete failed", "key", key, "error", err)
	}

	s.metrics.IncrementWrite("delete")
	s.emit(ctx, audit.Event{Type: audit.EventCompanyDeleted, Subject: company.TaxID.String()})
	return nil
}

func (s *Service) refresh(ctx context.Context, company *models.Company) models.CompanyView {
	view := company.View()
	body, err := json.Marshal(view)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode company view", "error", err)
		return view
	}
	s.remember(ctx, cache.Key(company.TaxID), body)
	return view
}
