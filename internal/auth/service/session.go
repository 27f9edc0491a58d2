package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cadastro/internal/audit"
	"cadastro/internal/auth/models"
	jwttoken "cadastro/internal/jwt_token"
	id "cadastro/pkg/domain"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/sentinel"
)

const invalidCredentials = "invalid credentials"

// Login checks the password and issues an access token. Unknown emails and
// wrong passwords return the same unauthorized error.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementLogin("error")
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		}
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password)) //nolint:errcheck // equalizes timing only
		s.loginFailed(ctx, email, "unknown_email")
		return nil, dErrors.New(dErrors.CodeUnauthorized, invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.loginFailed(ctx, email, "wrong_password")
		return nil, dErrors.New(dErrors.CodeUnauthorized, invalidCredentials)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(uuid.UUID(user.ID), user.Email)
	if err != nil {
		s.metrics.IncrementLogin("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.metrics.IncrementLogin("success")
	s.emit(ctx, audit.Event{
		Type:    audit.EventLoginSucceeded,
		UserID:  user.ID.String(),
		Email:   user.Email,
		Subject: user.ID.String(),
	})
	return &models.LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) loginFailed(ctx context.Context, email, reason string) {
	s.metrics.IncrementLogin("invalid_credentials")
	s.emit(ctx, audit.Event{
		Type:   audit.EventLoginFailed,
		Email:  email,
		Reason: reason,
	})
}

// Verify checks revocation first, then signature and expiry.
func (s *Service) Verify(ctx context.Context, token string) (*models.Claims, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing token")
	}
	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check token revocation")
	}
	if revoked {
		return nil, dErrors.Wrap(sentinel.ErrRevoked, dErrors.CodeUnauthorized, "token has been revoked")
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}

	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, dErrors.Wrap(sentinel.ErrMalformed, dErrors.CodeUnauthorized, "invalid token")
	}
	out := &models.Claims{
		UserID: userID,
		Email:  claims.Email,
		JTI:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Revoke lists the token as logged out until it would have expired anyway.
// It does not require the token to be valid and is safe to repeat.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	ttl := s.revocationTTL(token)
	if err := s.revocations.RevokeToken(ctx, token, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}

	s.metrics.IncrementTokensRevoked()
	event := audit.Event{Type: audit.EventLogout}
	if claims, err := s.tokens.ValidateToken(token); err == nil {
		event.UserID = claims.UserID
		event.Email = claims.Email
	}
	s.emit(ctx, event)
	return nil
}

// revocationTTL is the token's remaining lifetime, floored at minRevocationTTL.
// Tokens without a readable expiry are kept for a full token lifetime.
func (s *Service) revocationTTL(token string) time.Duration {
	exp, err := jwttoken.ExpiryUnverified(token)
	if err != nil {
		return s.tokens.TTL()
	}
	if remaining := exp.Sub(s.now()); remaining > minRevocationTTL {
		return remaining
	}
	return minRevocationTTL
}
