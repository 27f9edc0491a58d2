package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by CACHE_BACKEND and REVOCATION_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	TokenTTL        time.Duration
	CompanyCacheTTL time.Duration
	FrontendURL     string
	SeedDemoUsers   bool

	CacheBackend      string
	RevocationBackend string

	Database  DatabaseConfig
	Redis     RedisConfig
	Registry  RegistryConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Log       LogConfig
}

// DatabaseConfig configures the Postgres pool. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RegistryConfig points at the external company registry.
type RegistryConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RateLimitConfig struct {
	Requests      int
	Window        time.Duration
	LoginAttempts int
	LoginWindow   time.Duration
}

// AuditConfig enables the Kafka audit sink when Brokers is set.
type AuditConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
}

type LogConfig struct {
	Level string
	File  string
}

// Defaults applied when the environment is silent.
var (
	TokenTTL        = time.Hour
	CompanyCacheTTL = 5 * time.Minute
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:              getEnv("CADASTRO_ADDR", ":3000"),
		JWTSigningKey:     jwtSigningKey,
		JWTIssuer:         getEnv("JWT_ISSUER", "cadastro"),
		TokenTTL:          getDuration("TOKEN_TTL", TokenTTL),
		CompanyCacheTTL:   getDuration("COMPANY_CACHE_TTL", CompanyCacheTTL),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		SeedDemoUsers:     getBool("SEED_DEMO_USERS", false),
		CacheBackend:      strings.ToLower(getEnv("CACHE_BACKEND", BackendMemory)),
		RevocationBackend: strings.ToLower(getEnv("REVOCATION_BACKEND", BackendMemory)),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			RunMigrations:   getBool("RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Registry: RegistryConfig{
			BaseURL: strings.TrimRight(getEnv("REGISTRY_BASE_URL", "https://api.opencnpj.org"), "/"),
			Timeout: getDuration("REGISTRY_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			Requests:      getInt("RATE_LIMIT_REQUESTS", 100),
			Window:        getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			LoginAttempts: getInt("LOGIN_RATE_LIMIT", 5),
			LoginWindow:   getDuration("LOGIN_RATE_WINDOW", 15*time.Minute),
		},
		Audit: AuditConfig{
			KafkaBrokers: splitList(os.Getenv("AUDIT_KAFKA_BROKERS")),
			KafkaTopic:   getEnv("AUDIT_KAFKA_TOPIC", "cadastro.audit"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
	}
}

// Validate rejects combinations the server cannot start with.
func (s Server) Validate() error {
	switch s.CacheBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", s.CacheBackend)
	}
	switch s.RevocationBackend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown REVOCATION_BACKEND %q", s.RevocationBackend)
	}
	if (s.CacheBackend == BackendRedis || s.RevocationBackend == BackendRedis) && s.Redis.URL == "" {
		return fmt.Errorf("redis backend selected but REDIS_URL is empty")
	}
	if s.RevocationBackend == BackendPostgres && s.Database.URL == "" {
		return fmt.Errorf("postgres revocation backend selected but DATABASE_URL is empty")
	}
	if s.TokenTTL <= 0 || s.CompanyCacheTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL and COMPANY_CACHE_TTL must be positive")
	}
	if s.RateLimit.Requests <= 0 || s.RateLimit.LoginAttempts <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
