// Package cache holds short-lived JSON snapshots of company lookups.
//
// Values are stored as encoded bytes, so an entry handed to one caller can
// never be mutated through another. A missing or expired key reads as
// sentinel.ErrNotFound.
package cache

import (
	"context"
	"time"

	id "cadastro/pkg/domain"
)

// Cache is the lookup cache contract shared by every backend.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key; removing an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key returns the cache key of a company lookup.
func Key(taxID id.TaxID) string {
	return "cnpj:" + taxID.String()
}

// ResultRecorder receives hit/miss notifications.
type ResultRecorder interface {
	RecordCacheHit(backend string)
	RecordCacheMiss(backend string)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
