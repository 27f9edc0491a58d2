package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"cadastro/internal/company/models"
	id "cadastro/pkg/domain"
	"cadastro/pkg/platform/sentinel"
)

const companyColumns = `id, tax_id, legal_name, trade_name, registration_status,
	primary_activity_code, city, state, created_at, updated_at`

// PostgresStore persists companies in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*models.Company, error) {
	var c models.Company
	var taxID string
	var tradeName, status, activity, city, state sql.NullString
	if err := row.Scan(&c.ID, &taxID, &c.LegalName, &tradeName, &status,
		&activity, &city, &state, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.TaxID = id.TaxID(taxID)
	c.TradeName = fromNull(tradeName)
	c.RegistrationStatus = fromNull(status)
	c.PrimaryActivityCode = fromNull(activity)
	c.City = fromNull(city)
	c.State = fromNull(state)
	return &c, nil
}

func (s *PostgresStore) FindByTaxID(ctx context.Context, taxID id.TaxID) (*models.Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE tax_id = $1`, taxID.String())
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", taxID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find company by tax id: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, int64(companyID))
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company %d: %w", companyID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find company by id: %w", err)
	}
	return c, nil
}

// Upsert inserts rec or overwrites the row with the same tax id in one statement.
func (s *PostgresStore) Upsert(ctx context.Context, rec models.Record) (*models.Company, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO companies (tax_id, legal_name, trade_name, registration_status,
			primary_activity_code, city, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tax_id) DO UPDATE SET
			legal_name = EXCLUDED.legal_name,
			trade_name = EXCLUDED.trade_name,
			registration_status = EXCLUDED.registration_status,
			primary_activity_code = EXCLUDED.primary_activity_code,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			updated_at = NOW()
		RETURNING `+companyColumns,
		rec.TaxID.String(), rec.LegalName, toNull(rec.TradeName), toNull(rec.RegistrationStatus),
		toNull(rec.PrimaryActivityCode), toNull(rec.City), toNull(rec.State))
	c, err := scanCompany(row)
	if err != nil {
		return nil, fmt.Errorf("upsert company: %w", err)
	}
	return c, nil
}

// Update reads the row under lock, applies the patch and writes it back.
func (s *PostgresStore) Update(ctx context.Context, companyID id.CompanyID, patch models.Patch) (*models.Company, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin company update tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op
	}()

	current, err := scanCompany(tx.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1 FOR UPDATE`, int64(companyID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company %d: %w", companyID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("load company for update: %w", err)
	}

	patch.Apply(current)
	updated, err := scanCompany(tx.QueryRowContext(ctx, `
		UPDATE companies SET
			tax_id = $2, legal_name = $3, trade_name = $4, registration_status = $5,
			primary_activity_code = $6, city = $7, state = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+companyColumns,
		int64(companyID), current.TaxID.String(), current.LegalName, toNull(current.TradeName),
		toNull(current.RegistrationStatus), toNull(current.PrimaryActivityCode),
		toNull(current.City), toNull(current.State)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("tax id %s already registered: %w", current.TaxID, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("update company: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit company update: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	row := s.db.QueryRowContext(ctx, `DELETE FROM companies WHERE id = $1 RETURNING `+companyColumns, int64(companyID))
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company %d: %w", companyID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("delete company: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]models.Company, error) {
	if offset < 0 || limit <= 0 {
		return []models.Company{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+companyColumns+` FROM companies
		ORDER BY updated_at DESC, id DESC
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]models.Company, 0, limit)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return n, nil
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
