package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cadastro/internal/audit"
	authhandler "cadastro/internal/auth/handler"
	authmetrics "cadastro/internal/auth/metrics"
	authservice "cadastro/internal/auth/service"
	"cadastro/internal/auth/store/revocation"
	"cadastro/internal/auth/store/user"
	"cadastro/internal/company/cache"
	companyhandler "cadastro/internal/company/handler"
	companymetrics "cadastro/internal/company/metrics"
	"cadastro/internal/company/registry"
	companyservice "cadastro/internal/company/service"
	"cadastro/internal/company/store"
	httpapi "cadastro/internal/http"
	jwttoken "cadastro/internal/jwt_token"
	"cadastro/internal/platform/config"
	"cadastro/internal/platform/database"
	"cadastro/internal/platform/health"
	"cadastro/internal/platform/httpserver"
	"cadastro/internal/platform/logger"
	"cadastro/internal/platform/metrics"
	"cadastro/internal/platform/middleware"
	redisclient "cadastro/internal/platform/redis"
	"cadastro/internal/seeder"
)

const revocationPurgeInterval = 10 * time.Minute

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close() //nolint:errcheck // process is exiting

	if err := run(cfg, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Info("initializing cadastro",
		"addr", cfg.Addr,
		"cache_backend", cfg.CacheBackend,
		"revocation_backend", cfg.RevocationBackend,
		"database", cfg.Database.URL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := health.New()

	pool, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close() //nolint:errcheck // shutdown path
	if pool != nil {
		if cfg.Database.RunMigrations {
			if err := database.RunMigrations(cfg.Database.URL); err != nil {
				return err
			}
		}
		checks.RegisterCheck("database", pool.Health)
	}

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close() //nolint:errcheck // shutdown path
		checks.RegisterCheck("redis", rdb.Health)
	}

	// Audit
	sinks := []audit.Sink{audit.NewLogSink(log)}
	if len(cfg.Audit.KafkaBrokers) > 0 {
		client, err := audit.NewKafkaClient(cfg.Audit.KafkaBrokers)
		if err != nil {
			return err
		}
		kafkaSink := audit.NewKafkaSink(client, cfg.Audit.KafkaTopic, log)
		defer kafkaSink.Close() //nolint:errcheck // flush on shutdown
		sinks = append(sinks, kafkaSink)
	}
	publisher := audit.NewPublisher(sinks...)

	// Companies
	companyMetrics := companymetrics.New()
	var lookupCache companyservice.Cache
	switch cfg.CacheBackend {
	case config.BackendRedis:
		lookupCache = cache.NewRedis(rdb.Client, cache.WithRedisMetrics(companyMetrics))
	default:
		mem := cache.NewMemory(cfg.CompanyCacheTTL, cache.WithMemoryMetrics(companyMetrics))
		mem.Start()
		defer mem.Stop()
		lookupCache = mem
	}

	var companyStore companyservice.Store = store.NewInMemory()
	if pool != nil {
		companyStore = store.NewPostgres(pool.DB())
	}

	companies := companyservice.New(companyStore, lookupCache,
		registry.New(registry.Config{
			BaseURL: cfg.Registry.BaseURL,
			Timeout: cfg.Registry.Timeout,
			Metrics: companyMetrics,
		}),
		companyservice.WithLogger(log),
		companyservice.WithAuditPublisher(publisher),
		companyservice.WithMetrics(companyMetrics),
		companyservice.WithCacheTTL(cfg.CompanyCacheTTL),
	)

	// Sessions
	var users authservice.UserStore = user.New()
	if pool != nil {
		users = user.NewPostgres(pool.DB())
	}

	var revocations authservice.RevocationList
	switch cfg.RevocationBackend {
	case config.BackendRedis:
		revocations = revocation.NewRedisTRL(rdb.Client)
	case config.BackendPostgres:
		trl := revocation.NewPostgresTRL(pool.DB())
		go purgeRevocations(ctx, trl, log)
		revocations = trl
	default:
		trl := revocation.NewInMemoryTRL()
		trl.Start()
		defer trl.Stop()
		revocations = trl
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)
	auth := authservice.New(users, revocations, tokens,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(publisher),
		authservice.WithMetrics(authmetrics.New()),
	)

	if cfg.SeedDemoUsers {
		if _, err := seeder.Seed(ctx, auth, seeder.DemoUsers, log); err != nil {
			return err
		}
	}

	apiLimiter := middleware.NewRateLimiter("api", cfg.RateLimit.Requests, cfg.RateLimit.Window, log)
	loginLimiter := middleware.NewRateLimiter("login", cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow, log)
	apiLimiter.Start()
	loginLimiter.Start()
	defer apiLimiter.Stop()
	defer loginLimiter.Stop()

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       log,
		Auth:         authhandler.New(auth, log),
		Companies:    companyhandler.New(companies, log),
		Health:       checks,
		Validator:    jwttoken.NewJWTServiceAdapter(tokens),
		Revocations:  revocations,
		APILimiter:   apiLimiter,
		LoginLimiter: loginLimiter,
		HTTPMetrics:  metrics.New(nil),
		FrontendURL:  cfg.FrontendURL,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func purgeRevocations(ctx context.Context, trl *revocation.PostgresTRL, log *slog.Logger) {
	ticker := time.NewTicker(revocationPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := trl.PurgeExpired(ctx)
			if err != nil {
				log.ErrorContext(ctx, "failed to purge expired revocations", "error", err)
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "purged expired revocations", "count", n)
			}
		}
	}
}
