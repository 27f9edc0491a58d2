package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cadastro/internal/auth/models"
	"cadastro/pkg/platform/httputil"
	authmw "cadastro/pkg/platform/middleware/auth"
	"cadastro/pkg/requestcontext"
)

// Service defines the session operations exposed over HTTP.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Revoke(ctx context.Context, token string) error
}

type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{auth: auth, logger: logger}
}

// Register mounts POST /logout. Login is mounted separately through
// LoginRoute so the router can wrap it with its own limiter.
func (h *Handler) Register(r chi.Router) {
	r.Post("/logout", h.HandleLogout)
}

func (h *Handler) LoginRoute(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Post("/login", h.HandleLogin)
}

// HandleLogin implements POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleLogout implements POST /logout. The bearer token is optional; a
// request without one still succeeds.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if token, ok := authmw.BearerToken(r); ok {
		if err := h.auth.Revoke(ctx, token); err != nil {
			h.logger.ErrorContext(ctx, "failed to revoke token",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
