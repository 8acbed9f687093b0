package revocation

import (
	"context"
	"errors"

	"github.com/dgraph-io/ristretto/v2"
)

// Cached fronts a Store with an in-process cache of revoked digests.
// Only positive answers are cached: a revocation never expires, while a
// "not revoked" answer can become stale the moment another node revokes.
type Cached struct {
	next  Store
	cache *ristretto.Cache[string, struct{}]
}

// CacheConfig sizes the positive cache.
type CacheConfig struct {
	// MaxEntries bounds the number of cached digests.
	MaxEntries int64
}

// NewCached wraps next.
func NewCached(next Store, cfg CacheConfig) (*Cached, error) {
	if next == nil {
		return nil, errors.New("revocation cache requires a backing store")
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100_000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters:        cfg.MaxEntries * 10,
		MaxCost:            cfg.MaxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Revoke(ctx context.Context, token string) error {
	if err := c.next.Revoke(ctx, token); err != nil {
		return err
	}
	c.remember(Digest(token))
	return nil
}

func (c *Cached) IsRevoked(ctx context.Context, token string) (bool, error) {
	digest := Digest(token)
	if _, ok := c.cache.Get(digest); ok {
		return true, nil
	}
	revoked, err := c.next.IsRevoked(ctx, token)
	if err != nil {
		return false, err
	}
	if revoked {
		c.remember(digest)
	}
	return revoked, nil
}

// Close releases the cache goroutines.
func (c *Cached) Close() {
	c.cache.Close()
}

func (c *Cached) remember(digest string) {
	c.cache.Set(digest, struct{}{}, 1)
	c.cache.Wait()
}
