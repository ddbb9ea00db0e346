package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/simaogato/stocksim-backend/internal/logger"
	"github.com/simaogato/stocksim-backend/internal/metrics"
	"go.uber.org/zap"
)

// QuoteService is the read-through quote fetcher in front of the provider
type QuoteService struct {
	Cache    domain.QuoteCache
	Provider domain.QuoteProvider
	Now      func() time.Time
	Logger   *zap.Logger
}

// NewQuoteService creates a new QuoteService instance
func NewQuoteService(cache domain.QuoteCache, provider domain.QuoteProvider, log *zap.Logger) *QuoteService {
	return &QuoteService{
		Cache:    cache,
		Provider: provider,
		Now:      time.Now,
		Logger:   logger.OrNop(log),
	}
}

// FetchQuote returns the quote for symbol, serving it from the cache while fresh
// Returns nil, nil when the provider has no usable price; transport failures are returned as errors
func (s *QuoteService) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("invalid symbol: empty")
	}

	now := s.Now()

	// A broken cache backend degrades to a provider lookup
	cached, err := s.Cache.Get(ctx, symbol, now)
	if err != nil {
		s.Logger.Warn("quote cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}
	if cached != nil {
		metrics.QuoteCacheHits.Inc()
		q := cached.ToQuote()
		return &q, nil
	}
	metrics.QuoteCacheMisses.Inc()

	q, err := s.Provider.Quote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	if q == nil {
		return nil, nil
	}
	if err := q.Validate(); err != nil {
		s.Logger.Warn("discarding invalid provider quote", zap.String("symbol", symbol), zap.Error(err))
		return nil, nil
	}

	fetchedAt := now
	q.Symbol = symbol
	q.FetchedAt = &fetchedAt

	if err := s.Cache.Put(ctx, *q, fetchedAt); err != nil {
		s.Logger.Warn("quote cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}

	return q, nil
}

// Prices builds the symbol to price map consumed by the valuator
// Symbols without a usable price are left out; the first transport failure aborts
func (s *QuoteService) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		symbol = domain.NormalizeSymbol(symbol)
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		q, err := s.FetchQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if q == nil {
			continue
		}
		prices[symbol] = q.Price
	}
	return prices, nil
}
