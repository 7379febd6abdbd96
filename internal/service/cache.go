package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"propsearch/internal/model"
)

// SuggestionCache memoizes ranked suggestion lists. Errors mean the backing
// store is unavailable; callers compute fresh results instead of failing.
type SuggestionCache interface {
	Get(ctx context.Context, key string) ([]model.Suggestion, bool, error)
	Set(ctx context.Context, key string, data []model.Suggestion) error
}

// CacheKey builds the cache key for a normalized query and limit.
func CacheKey(normalizedQuery string, limit int) string {
	return normalizedQuery + ":" + strconv.Itoa(limit)
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// MemoryCacheOptions configures a MemoryCache
type MemoryCacheOptions struct {
	TTL time.Duration
	// SoftCeiling triggers an inline sweep before an insert once exceeded.
	SoftCeiling int
	// Capacity bounds memory; beyond it the least recently used entry goes.
	Capacity int
	Clock    Clock
}

// MemoryCache is an in-process SuggestionCache with a fixed TTL measured from
// insertion. Entries are never invalidated by data changes.
type MemoryCache struct {
	entries     *lru.Cache[string, model.CacheEntry]
	ttl         time.Duration
	softCeiling int
	now         Clock
	sweepMu     sync.Mutex
}

// NewMemoryCache creates a new in-memory suggestion cache
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.SoftCeiling <= 0 {
		opts.SoftCeiling = 100
	}
	if opts.Capacity < opts.SoftCeiling {
		opts.Capacity = opts.SoftCeiling * 10
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, model.CacheEntry](opts.Capacity)
	return &MemoryCache{
		entries:     entries,
		ttl:         opts.TTL,
		softCeiling: opts.SoftCeiling,
		now:         opts.Clock,
	}
}

// Get returns the live entry for key. Expired entries read as misses.
func (c *MemoryCache) Get(_ context.Context, key string) ([]model.Suggestion, bool, error) {
	entry, ok := c.entries.Get(key)
	if !ok || c.expired(entry) {
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores data under key, sweeping first when the soft ceiling is exceeded.
func (c *MemoryCache) Set(_ context.Context, key string, data []model.Suggestion) error {
	if c.entries.Len() > c.softCeiling {
		c.Sweep()
	}
	c.entries.Add(key, model.CacheEntry{Key: key, Data: data, Timestamp: c.now()})
	return nil
}

// Sweep removes every expired entry and reports how many went.
func (c *MemoryCache) Sweep() int {
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()

	removed := 0
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if ok && c.expired(entry) {
			// Peek then Remove can race with a concurrent Set of a fresh entry;
			// the worst case is one extra recomputation.
			c.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Run sweeps every interval until ctx is done.
func (c *MemoryCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				slog.Debug("suggestion cache swept", slog.Int("removed", n), slog.Int("remaining", c.Len()))
			}
		}
	}
}

func (c *MemoryCache) expired(entry model.CacheEntry) bool {
	return c.now().Sub(entry.Timestamp) >= c.ttl
}
