package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"cadastro/pkg/platform/sentinel"
)

// Memory is an in-process cache. Entries expire ttl after Set; reads do not
// extend their lifetime.
type Memory struct {
	items   *ttlcache.Cache[string, []byte]
	metrics ResultRecorder
}

type MemoryOption func(*Memory)

func WithMemoryMetrics(m ResultRecorder) MemoryOption {
	return func(c *Memory) {
		c.metrics = m
	}
}

func NewMemory(defaultTTL time.Duration, opts ...MemoryOption) *Memory {
	c := &Memory{
		items: ttlcache.New(
			ttlcache.WithTTL[string, []byte](defaultTTL),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs the expired-entry janitor until Stop is called.
func (c *Memory) Start() { go c.items.Start() }

func (c *Memory) Stop() { c.items.Stop() }

func (c *Memory) Get(_ context.Context, key string) ([]byte, error) {
	item := c.items.Get(key)
	if item == nil || item.IsExpired() {
		c.recordMiss()
		return nil, fmt.Errorf("cache entry %s: %w", key, sentinel.ErrNotFound)
	}
	c.recordHit()
	return clone(item.Value()), nil
}

func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	c.items.Set(key, clone(value), ttl)
	return nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

// Len reports the number of entries, including expired ones not yet collected.
func (c *Memory) Len() int { return c.items.Len() }

func (c *Memory) recordHit() {
	if c.metrics != nil {
		c.metrics.RecordCacheHit("memory")
	}
}

func (c *Memory) recordMiss() {
	if c.metrics != nil {
		c.metrics.RecordCacheMiss("memory")
	}
}
