package service

import (
	"context"
	"errors"
	"net/mail"

	"golang.org/x/crypto/bcrypt"

	"cadastro/internal/audit"
	"cadastro/internal/auth/models"
	id "cadastro/pkg/domain"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/sentinel"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

// CreateUser hashes the password and stores a new user.
func (s *Service) CreateUser(ctx context.Context, email, password string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	if password == "" || len(password) > maxPasswordBytes {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be between 1 and 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	user := &models.User{
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.metrics.IncrementUsersCreated()
	s.emit(ctx, audit.Event{
		Type:    audit.EventUserCreated,
		UserID:  user.ID.String(),
		Email:   user.Email,
		Subject: user.ID.String(),
	})
	return user, nil
}
