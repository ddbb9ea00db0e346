package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteTTL is the maximum age of a cached quote before it has to be refetched
const QuoteTTL = 5 * time.Minute

// Quote represents price and change data for one instrument at one point in time
// FetchedAt is optional on a fresh provider response and always set once the quote went through the cache
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	PercentChange decimal.Decimal `json:"percent_change"`
	DisplayName   string          `json:"display_name"`
	FetchedAt     *time.Time      `json:"fetched_at,omitempty"`
}

// Validate ensures the quote adheres to domain rules
func (q *Quote) Validate() error {
	if q.Symbol == "" {
		return errors.New("quote symbol cannot be empty")
	}

	if q.Price.IsNegative() {
		return errors.New("quote price must not be negative")
	}

	return nil
}

// CachedQuote is a Quote together with the instant it was fetched
type CachedQuote struct {
	Quote     Quote     `json:"quote"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewCachedQuote stamps a quote with the fetch time
func NewCachedQuote(q Quote, fetchedAt time.Time) CachedQuote {
	q.Symbol = NormalizeSymbol(q.Symbol)
	q.FetchedAt = &fetchedAt
	return CachedQuote{Quote: q, FetchedAt: fetchedAt}
}

// IsFresh reports whether the entry is still within QuoteTTL at now
func (c CachedQuote) IsFresh(now time.Time) bool {
	return now.Sub(c.FetchedAt) < QuoteTTL
}

// ToQuote returns the quote with FetchedAt set
func (c CachedQuote) ToQuote() Quote {
	q := c.Quote
	fetchedAt := c.FetchedAt
	q.FetchedAt = &fetchedAt
	return q
}

// SearchMatch is one instrument returned by the provider's symbol search
type SearchMatch struct {
	Symbol      string
	Description string
	Type        string
}

// NormalizeSymbol upper-cases and trims a ticker so it can be used as a cache key
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
