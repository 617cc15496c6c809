package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/race-weather/internal/weather"
)

// cacheEntry is a cached forecast with its expiry.
type cacheEntry struct {
	Series    weather.ForecastSeries
	StoredAt  time.Time
	ExpiresAt time.Time
}

// MemoryCache is a concurrency-safe in-memory implementation of weather.Cache.
type MemoryCache struct {
	mu sync.RWMutex

	// key: location key, value: cached series
	data map[string]cacheEntry

	// maxEntries bounds the number of cached locations (0 = unlimited).
	maxEntries int

	now func() time.Time
}

// NewMemoryCache creates a new MemoryCache.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		data:       make(map[string]cacheEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns a copy of the cached series for key if it has not expired.
func (c *MemoryCache) Get(_ context.Context, key string) (weather.ForecastSeries, bool, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if !c.now().Before(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, still := c.data[key]; still && !c.now().Before(cur.ExpiresAt) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	out := make(weather.ForecastSeries, len(entry.Series))
	copy(out, entry.Series)
	return out, true, nil
}

// Set stores series under key for ttl and enforces the entry bound.
func (c *MemoryCache) Set(_ context.Context, key string, series weather.ForecastSeries, ttl time.Duration) error {
	now := c.now()
	stored := make(weather.ForecastSeries, len(series))
	copy(stored, series)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{
		Series:    stored,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	if c.maxEntries <= 0 || len(c.data) <= c.maxEntries {
		return nil
	}

	// Enforce retention: expired entries first, then the oldest ones.
	for k, e := range c.data {
		if !now.Before(e.ExpiresAt) {
			delete(c.data, k)
		}
	}
	for len(c.data) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.data {
			if oldestKey == "" || e.StoredAt.Before(oldest) {
				oldestKey, oldest = k, e.StoredAt
			}
		}
		delete(c.data, oldestKey)
	}
	return nil
}

// Purge drops every entry.
func (c *MemoryCache) Purge(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheEntry)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

var _ weather.Cache = (*MemoryCache)(nil)
