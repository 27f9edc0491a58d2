package revocation

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// InMemoryTRL is a process-local revocation list.
type InMemoryTRL struct {
	entries *ttlcache.Cache[string, struct{}]
}

func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{
		entries: ttlcache.New(ttlcache.WithDisableTouchOnHit[string, struct{}]()),
	}
}

// Start runs the expiry janitor until Stop is called.
func (t *InMemoryTRL) Start() { go t.entries.Start() }

func (t *InMemoryTRL) Stop() { t.entries.Stop() }

func (t *InMemoryTRL) RevokeToken(_ context.Context, token string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.entries.Set(Digest(token), struct{}{}, ttl)
	return nil
}

func (t *InMemoryTRL) IsRevoked(_ context.Context, token string) (bool, error) {
	item := t.entries.Get(Digest(token))
	return item != nil && !item.IsExpired(), nil
}

// Len reports the number of live entries.
func (t *InMemoryTRL) Len() int { return t.entries.Len() }
