package service

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"cadastro/internal/company/models"
	dErrors "cadastro/pkg/domain-errors"
)

// List returns one page of companies, most recently updated first.
// Non-positive page or limit fall back to defaults; both are capped.
func (s *Service) List(ctx context.Context, page, limit int) (*models.CompanyPage, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	// keeps (page-1)*limit within int
	page = min(page, math.MaxInt/limit)

	var (
		rows  []models.Company
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.store.List(gctx, (page-1)*limit, limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list companies")
	}
	if rows == nil {
		rows = []models.Company{}
	}

	return &models.CompanyPage{
		Data: rows,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}
