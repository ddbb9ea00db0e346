package search

import (
	"context"
	"strings"
	"sync"

	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/simaogato/stocksim-backend/internal/logger"
	"github.com/simaogato/stocksim-backend/internal/metrics"
	"go.uber.org/zap"
)

// DefaultLimit is the maximum number of quotes a search returns
const DefaultLimit = 5

// QuoteFetcher is the read-through quote lookup used to enrich matches
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// InstrumentFilter decides whether a provider match is a tradable candidate
type InstrumentFilter func(domain.SearchMatch) bool

// NewDefaultFilter rejects symbols containing any of delimiters
// and, when types is non-empty, instruments whose type is not listed
func NewDefaultFilter(delimiters string, types []string) InstrumentFilter {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return func(m domain.SearchMatch) bool {
		if delimiters != "" && strings.ContainsAny(m.Symbol, delimiters) {
			return false
		}
		if len(allowed) > 0 && !allowed[m.Type] {
			return false
		}
		return true
	}
}

// SearchService turns a free-text query into a short list of quoted instruments
type SearchService struct {
	Provider domain.QuoteProvider
	Quotes   QuoteFetcher
	Filter   InstrumentFilter
	Limit    int
	Logger   *zap.Logger
}

// NewSearchService creates a new SearchService instance
// A nil filter keeps every match; a limit <= 0 means DefaultLimit
func NewSearchService(provider domain.QuoteProvider, quotes QuoteFetcher, filter InstrumentFilter, limit int, log *zap.Logger) *SearchService {
	if filter == nil {
		filter = func(domain.SearchMatch) bool { return true }
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &SearchService{
		Provider: provider,
		Quotes:   quotes,
		Filter:   filter,
		Limit:    limit,
		Logger:   logger.OrNop(log),
	}
}

// Search returns quotes for the first Limit filtered matches of query, in match order
// Failures never surface: a failed provider search yields an empty slice and
// failed or absent quotes are dropped
func (s *SearchService) Search(ctx context.Context, query string) []domain.Quote {
	results := s.search(ctx, query)
	metrics.SearchResults.Observe(float64(len(results)))
	return results
}

func (s *SearchService) search(ctx context.Context, query string) []domain.Quote {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Quote{}
	}

	matches, err := s.Provider.Search(ctx, query)
	if err != nil {
		s.Logger.Warn("symbol search failed", zap.String("query", query), zap.Error(err))
		return []domain.Quote{}
	}

	candidates := make([]domain.SearchMatch, 0, s.Limit)
	for _, m := range matches {
		if !s.Filter(m) {
			continue
		}
		candidates = append(candidates, m)
		if len(candidates) == s.Limit {
			break
		}
	}
	if len(candidates) == 0 {
		return []domain.Quote{}
	}

	// One slot per candidate keeps output in candidate order
	slots := make([]*domain.Quote, len(candidates))
	var wg sync.WaitGroup
	for i, m := range candidates {
		wg.Add(1)
		go func(i int, m domain.SearchMatch) {
			defer wg.Done()
			q, err := s.Quotes.FetchQuote(ctx, m.Symbol)
			if err != nil {
				metrics.SearchDroppedSymbols.Inc()
				s.Logger.Warn("dropping search result", zap.String("symbol", m.Symbol), zap.Error(err))
				return
			}
			if q == nil {
				return
			}
			q.DisplayName = m.Description
			slots[i] = q
		}(i, m)
	}
	wg.Wait()

	results := make([]domain.Quote, 0, len(slots))
	for _, q := range slots {
		if q != nil {
			results = append(results, *q)
		}
	}
	return results
}
