package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is an in-process LRU cache with per-entry expiry
type MemoryCache struct {
	cache   *lru.LRU[string, *Entry]
	metrics *metrics
}

// NewMemoryCache creates a memory cache holding up to size entries for ttl.
// A zero ttl disables expiry.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size < 1 {
		size = 1
	}

	return &MemoryCache{
		cache:   lru.NewLRU[string, *Entry](size, nil, ttl),
		metrics: newMetrics(),
	}
}

// Get retrieves a cached parse result
func (c *MemoryCache) Get(ctx context.Context, key *Key) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	entry, ok := c.cache.Get(key.String())
	if !ok {
		c.metrics.recordMiss()
		return nil, ErrCacheMiss
	}

	c.metrics.recordHit()
	return entry, nil
}

// Set stores a parse result
func (c *MemoryCache) Set(ctx context.Context, key *Key, entry *Entry) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	c.cache.Add(key.String(), entry)
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats(ctx context.Context) (*Stats, error) {
	return c.metrics.stats(int64(c.cache.Len())), nil
}

// Close releases resources
func (c *MemoryCache) Close() error {
	c.cache.Purge()
	return nil
}

// metrics tracks cache hits and misses
type metrics struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func newMetrics() *metrics {
	return &metrics{}
}

func (m *metrics) recordHit() {
	m.hits.Add(1)
}

func (m *metrics) recordMiss() {
	m.misses.Add(1)
}

func (m *metrics) stats(items int64) *Stats {
	stats := &Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		ItemCount: items,
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}
