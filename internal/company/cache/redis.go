package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cadastro/pkg/platform/sentinel"
)

const keyPrefix = "company:"

// Redis stores entries with SET EX so expiry is enforced by the server.
type Redis struct {
	client  redis.UniversalClient
	metrics ResultRecorder
}

type RedisOption func(*Redis)

func WithRedisMetrics(m ResultRecorder) RedisOption {
	return func(c *Redis) {
		c.metrics = m
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	c := &Redis{client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(false)
		return nil, fmt.Errorf("cache entry %s: %w", key, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	c.record(true)
	return val, nil
}

func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (c *Redis) record(hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.RecordCacheHit("redis")
	} else {
		c.metrics.RecordCacheMiss("redis")
	}
}
