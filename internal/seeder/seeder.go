// Package seeder creates the demo accounts used for local development.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"cadastro/internal/auth/models"
	dErrors "cadastro/pkg/domain-errors"
)

// UserCreator hashes and stores a new user. A duplicate email returns a
// conflict domain error.
type UserCreator interface {
	CreateUser(ctx context.Context, email, password string) (*models.User, error)
}

type Credential struct {
	Email    string
	Password string
}

// DemoUsers are the accounts seeded when SEED_DEMO_USERS is set.
var DemoUsers = []Credential{
	{Email: "teste@example.com", Password: "senha123"},
	{Email: "admin@example.com", Password: "teste456"},
}

// Seed creates every credential that does not exist yet and returns how many
// were created. Existing accounts are left untouched.
func Seed(ctx context.Context, users UserCreator, creds []Credential, logger *slog.Logger) (int, error) {
	created := 0
	for _, c := range creds {
		_, err := users.CreateUser(ctx, c.Email, c.Password)
		switch {
		case err == nil:
			created++
			logger.InfoContext(ctx, "seeded user", "email", c.Email)
		case dErrors.HasCode(err, dErrors.CodeConflict):
			logger.DebugContext(ctx, "seed user already exists", "email", c.Email)
		default:
			return created, fmt.Errorf("seed user %s: %w", c.Email, err)
		}
	}
	return created, nil
}
