// Package memory provides the process-local quote cache.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/simaogato/stocksim-backend/internal/domain"
)

// Cache implements domain.QuoteCache in memory
// Entries are only ever overwritten; with maxEntries > 0 the least recently used symbol is evicted
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache
}

// New creates a Cache; maxEntries of 0 means unbounded
func New(maxEntries int) *Cache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Cache{entries: lru.New(maxEntries)}
}

// Get returns the entry for symbol if it is fresh at now
func (c *Cache) Get(_ context.Context, symbol string, now time.Time) (*domain.CachedQuote, error) {
	c.mu.Lock()
	v, ok := c.entries.Get(domain.NormalizeSymbol(symbol))
	c.mu.Unlock()
	if !ok {
		return nil, nil
	}

	cached := v.(domain.CachedQuote)
	if !cached.IsFresh(now) {
		return nil, nil
	}
	return &cached, nil
}

// Put stores quote as fetched at now
func (c *Cache) Put(_ context.Context, quote domain.Quote, now time.Time) error {
	cached := domain.NewCachedQuote(quote, now)

	c.mu.Lock()
	c.entries.Add(cached.Quote.Symbol, cached)
	c.mu.Unlock()
	return nil
}

// size returns the number of stored entries, fresh or stale
func (c *Cache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
