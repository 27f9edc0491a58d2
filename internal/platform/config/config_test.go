package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.CompanyCacheTTL)
	assert.Equal(t, "https://api.opencnpj.org", cfg.Registry.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Registry.Timeout)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, 5, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.LoginWindow)
	assert.Equal(t, BackendMemory, cfg.CacheBackend)
	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.Database.RunMigrations)
	assert.NotEmpty(t, cfg.JWTSigningKey)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CADASTRO_ADDR", ":9090")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("COMPANY_CACHE_TTL", "not-a-duration")
	t.Setenv("REGISTRY_BASE_URL", "http://localhost:8082/")
	t.Setenv("CACHE_BACKEND", "REDIS")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("AUDIT_KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("SEED_DEMO_USERS", "true")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.CompanyCacheTTL, "unparsable values fall back")
	assert.Equal(t, "http://localhost:8082", cfg.Registry.BaseURL)
	assert.Equal(t, BackendRedis, cfg.CacheBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.KafkaBrokers)
	assert.True(t, cfg.SeedDemoUsers)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := FromEnv()

	t.Run("unknown cache backend", func(t *testing.T) {
		cfg := base
		cfg.CacheBackend = "memcached"
		assert.ErrorContains(t, cfg.Validate(), "CACHE_BACKEND")
	})

	t.Run("redis without url", func(t *testing.T) {
		cfg := base
		cfg.RevocationBackend = BackendRedis
		cfg.Redis.URL = ""
		assert.ErrorContains(t, cfg.Validate(), "REDIS_URL")
	})

	t.Run("postgres revocation without database", func(t *testing.T) {
		cfg := base
		cfg.RevocationBackend = BackendPostgres
		cfg.Database.URL = ""
		assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")
	})
}
