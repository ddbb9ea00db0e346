// Package rediscache provides a quote cache shared between server instances.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/simaogato/stocksim-backend/internal/metrics"
)

const keyPrefix = "quote:"

// Cache implements domain.QuoteCache on top of Redis
// Keys expire after domain.QuoteTTL; freshness is still checked against FetchedAt
type Cache struct {
	rdb *redis.Client
}

// New connects to the Redis instance at redisURL
func New(redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 2 * time.Second
	opt.WriteTimeout = 2 * time.Second
	return NewWithClient(redis.NewClient(opt)), nil
}

// NewWithClient wraps an existing client
func NewWithClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Get returns the cached quote when present and fresh at now
func (c *Cache) Get(ctx context.Context, symbol string, now time.Time) (*domain.CachedQuote, error) {
	data, err := c.rdb.Get(ctx, key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		metrics.QuoteCacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("failed to read cached quote for %s: %w", symbol, err)
	}

	var cached domain.CachedQuote
	if err := json.Unmarshal(data, &cached); err != nil {
		metrics.QuoteCacheErrors.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("failed to decode cached quote for %s: %w", symbol, err)
	}

	if !cached.IsFresh(now) {
		return nil, nil
	}
	return &cached, nil
}

// Put stores quote as fetched at now with a TTL matching domain.QuoteTTL
func (c *Cache) Put(ctx context.Context, quote domain.Quote, now time.Time) error {
	cached := domain.NewCachedQuote(quote, now)
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to encode quote for %s: %w", cached.Quote.Symbol, err)
	}

	if err := c.rdb.Set(ctx, key(cached.Quote.Symbol), string(data), domain.QuoteTTL).Err(); err != nil {
		metrics.QuoteCacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("failed to cache quote for %s: %w", cached.Quote.Symbol, err)
	}
	return nil
}

// Close closes the underlying connection pool
func (c *Cache) Close() error {
	return c.rdb.Close()
}

func key(symbol string) string {
	return keyPrefix + domain.NormalizeSymbol(symbol)
}
