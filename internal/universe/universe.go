// Package universe caches the tradable stock list for the lifetime of
// the process. The cache is an explicit object with an injected clock,
// constructed once at startup and passed to handlers, so tests can
// control expiry deterministically.
package universe

import (
	"sync"
	"time"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
)

// Cache holds the last fetched stock list with a TTL.
type Cache struct {
	mu        sync.RWMutex
	listings  []model.StockListing
	fetchedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// New creates a Cache with the given TTL and clock. A nil clock uses
// time.Now.
func New(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now}
}

// Get returns the cached list, or ok=false when empty or expired.
func (c *Cache) Get() ([]model.StockListing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.listings == nil || c.now().Sub(c.fetchedAt) > c.ttl {
		return nil, false
	}
	return c.listings, true
}

// Set replaces the cached list and stamps the fetch time.
func (c *Cache) Set(listings []model.StockListing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listings = listings
	c.fetchedAt = c.now()
}
