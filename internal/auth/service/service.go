package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cadastro/internal/audit"
	"cadastro/internal/auth/metrics"
	"cadastro/internal/auth/models"
	jwttoken "cadastro/internal/jwt_token"
)

// UserStore holds login credentials.
// Error contract: unknown users return sentinel.ErrNotFound and a duplicate
// email on Create returns sentinel.ErrConflict.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// RevocationList is the set of logged-out tokens. It is shared with the
// auth middleware so both see the same revocations.
type RevocationList interface {
	RevokeToken(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type TokenGenerator interface {
	GenerateAccessToken(userID uuid.UUID, email string) (string, time.Time, error)
	ValidateToken(token string) (*jwttoken.Claims, error)
	TTL() time.Duration
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// minRevocationTTL is the shortest lifetime given to a revocation entry.
const minRevocationTTL = time.Minute

// Service issues, verifies and revokes access tokens.
type Service struct {
	users       UserStore
	revocations RevocationList
	tokens      TokenGenerator
	hashCost    int
	now         func() time.Time
	logger      *slog.Logger
	audit       AuditPublisher
	metrics     *metrics.Metrics

	dummyOnce sync.Once
	dummyHash []byte
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

// WithHashCost sets the bcrypt cost for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.hashCost = cost
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(users UserStore, revocations RevocationList, tokens TokenGenerator, opts ...Option) *Service {
	svc := &Service{
		users:       users,
		revocations: revocations,
		tokens:      tokens,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// dummy returns a hash compared against when the email is unknown, so both
// failure paths run a bcrypt comparison of the same cost.
func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.hashCost)
		if err != nil {
			s.logger.Error("failed to build dummy password hash", "error", err)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		s.logger.InfoContext(ctx, string(event.Type),
			"event_type", string(event.Type),
			"email", event.Email,
			"reason", event.Reason,
		)
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "event_type", string(event.Type), "error", err)
	}
}
