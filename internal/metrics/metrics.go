package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Quote cache metrics
	QuoteCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksim_quote_cache_hits_total",
			Help: "Quote lookups served from the cache",
		})
	QuoteCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksim_quote_cache_misses_total",
			Help: "Quote lookups that went to the provider",
		})
	QuoteCacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksim_quote_cache_errors_total",
			Help: "Quote cache backend errors",
		},
		[]string{"operation"},
	)

	// Provider metrics
	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stocksim_provider_request_duration_seconds",
			Help:    "Market data provider request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)
	QuotesUnavailable = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksim_quotes_unavailable_total",
			Help: "Provider responses without a usable price",
		})

	// Search metrics
	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stocksim_search_results",
			Help:    "Number of quotes returned per search",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
		})
	SearchDroppedSymbols = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksim_search_dropped_symbols_total",
			Help: "Search candidates dropped because their quote lookup failed",
		})

	// Account metrics
	AccountInitializations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksim_account_initializations_total",
			Help: "Account initializations by outcome",
		},
		[]string{"outcome"},
	)

	// API metrics
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stocksim_api_request_duration_seconds",
			Help:    "API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transport", "method", "code"},
	)
)

func init() {
	// MustRegister panics if registration fails (e.g. duplicate)
	prometheus.MustRegister(
		QuoteCacheHits, QuoteCacheMisses, QuoteCacheErrors,
		ProviderRequestDuration, QuotesUnavailable,
		SearchResults, SearchDroppedSymbols,
		AccountInitializations,
		APIRequestDuration,
	)
}

// Status returns "success" or "error" for metric labels
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
