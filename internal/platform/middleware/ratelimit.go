package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// RateLimiter keeps a token bucket per client IP. A bucket holds `requests`
// tokens and refills completely over `window`. Buckets idle for a whole window
// are full again, so they are evicted after that long.
type RateLimiter struct {
	name     string
	limit    rate.Limit
	burst    int
	limiters *ttlcache.Cache[string, *rate.Limiter]
	logger   *slog.Logger
}

func NewRateLimiter(name string, requests int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		name:     name,
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		limiters: ttlcache.New(ttlcache.WithTTL[string, *rate.Limiter](window)),
		logger:   logger,
	}
}

// Start runs the eviction loop until Stop is called.
func (rl *RateLimiter) Start() { go rl.limiters.Start() }

func (rl *RateLimiter) Stop() { rl.limiters.Stop() }

// Clients reports how many client buckets are tracked.
func (rl *RateLimiter) Clients() int { return rl.limiters.Len() }

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	if item := rl.limiters.Get(key); item != nil {
		return item.Value()
	}
	item, _ := rl.limiters.GetOrSet(key, rate.NewLimiter(rl.limit, rl.burst))
	return item.Value()
}

// Limit consumes one token for every request.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !rl.limiterFor(ip).Allow() {
			rl.reject(w, r, ip)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LimitFailures only charges requests that end with a 4xx/5xx status, so
// successful calls never lock a client out. A client with an empty bucket is
// rejected before the handler runs.
func (rl *RateLimiter) LimitFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		limiter := rl.limiterFor(ip)
		if limiter.Tokens() < 1 {
			rl.reject(w, r, ip)
			return
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= http.StatusBadRequest {
			limiter.Allow()
		}
	})
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, ip string) {
	rl.logger.WarnContext(r.Context(), "rate limit exceeded",
		"limit_type", rl.name,
		"client_ip", ip,
	)
	retryAfter := max(int(math.Ceil(1.0/float64(rl.limit))), 1)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"Too many requests, please try again later"}`))
}
