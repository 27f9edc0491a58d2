package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "cadastro/internal/auth/handler"
	companyhandler "cadastro/internal/company/handler"
	"cadastro/internal/platform/health"
	"cadastro/internal/platform/metrics"
	"cadastro/internal/platform/middleware"
	authmw "cadastro/pkg/platform/middleware/auth"
)

// RequestTimeout bounds every request below /api.
const RequestTimeout = 30 * time.Second

// Deps are the collaborators the router mounts. Revocations must be the same
// list the auth service writes to on logout.
type Deps struct {
	Logger       *slog.Logger
	Auth         *authhandler.Handler
	Companies    *companyhandler.Handler
	Health       *health.Handler
	Validator    authmw.JWTValidator
	Revocations  authmw.TokenRevocationChecker
	APILimiter   *middleware.RateLimiter
	LoginLimiter *middleware.RateLimiter
	HTTPMetrics  *metrics.Metrics
	Gatherer     prometheus.Gatherer
	FrontendURL  string
}

// NewRouter wires all public endpoints below /api plus /metrics.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Instrument)
	}
	r.Use(middleware.CORS(d.FrontendURL))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimw.Compress(5))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(RequestTimeout))
		api.Use(middleware.ContentTypeJSON)
		if d.APILimiter != nil {
			api.Use(d.APILimiter.Limit)
		}

		if d.Health != nil {
			d.Health.Register(api)
		}

		var loginLimit []func(http.Handler) http.Handler
		if d.LoginLimiter != nil {
			loginLimit = append(loginLimit, d.LoginLimiter.LimitFailures)
		}
		d.Auth.LoginRoute(api, loginLimit...)
		d.Auth.Register(api)

		api.Group(func(protected chi.Router) {
			protected.Use(authmw.RequireAuth(d.Validator, d.Revocations, logger))
			d.Companies.Register(protected)
		})
	})

	return r
}
