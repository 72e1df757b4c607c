package trust

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheTTL is the default freshness window for a cached score.
const DefaultCacheTTL = 5 * time.Minute

// DefaultCacheSize bounds the number of distinct agents cached at once.
const DefaultCacheSize = 4096

type cacheEntry struct {
	score   *int
	fetched time.Time
}

// Cached wraps a Resolver with an LRU+TTL cache keyed by agentID. On a
// backend error, a stale cache entry is returned rather than unknown, per
// the caching design note: a temporary resolver outage shouldn't erase an
// agent's last-known reputation.
type Cached struct {
	inner Resolver
	ttl   time.Duration
	cache *lru.Cache[string, cacheEntry]
}

var _ Resolver = (*Cached)(nil)

// NewCached wraps inner with an LRU cache of the given size and TTL.
func NewCached(inner Resolver, size int, ttl time.Duration) (*Cached, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, ttl: ttl, cache: cache}, nil
}

// GetScore returns a fresh cached entry if one exists, otherwise queries
// the wrapped resolver and caches the result. If the wrapped resolver
// errors and a stale entry exists, the stale entry is returned instead of
// propagating the error.
func (c *Cached) GetScore(ctx context.Context, agentID string) (*int, error) {
	if entry, ok := c.cache.Get(agentID); ok {
		if time.Since(entry.fetched) < c.ttl {
			return entry.score, nil
		}
	}

	score, err := c.inner.GetScore(ctx, agentID)
	if err != nil {
		if entry, ok := c.cache.Get(agentID); ok {
			return entry.score, nil
		}
		return nil, err
	}

	c.cache.Add(agentID, cacheEntry{score: score, fetched: time.Now()})
	return score, nil
}

// Evict drops every cache entry whose TTL has elapsed, so a periodic sweep
// can bound memory use by recency rather than only by the LRU's fixed
// capacity. Entries are inspected with Peek so the sweep itself never
// perturbs the LRU's recency ordering.
func (c *Cached) Evict() {
	now := time.Now()
	for _, agentID := range c.cache.Keys() {
		entry, ok := c.cache.Peek(agentID)
		if !ok {
			continue
		}
		if now.Sub(entry.fetched) >= c.ttl {
			c.cache.Remove(agentID)
		}
	}
}

// Close releases the wrapped resolver.
func (c *Cached) Close() error {
	return c.inner.Close()
}
