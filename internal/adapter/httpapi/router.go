// Package httpapi exposes the public market-data endpoints over hertz.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/simaogato/stocksim-backend/internal/logger"
	"github.com/simaogato/stocksim-backend/internal/metrics"
	"go.uber.org/zap"
)

// QuoteFetcher looks up one quote through the cache
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// Searcher runs a symbol search
type Searcher interface {
	Search(ctx context.Context, query string) []domain.Quote
}

type quoteJSON struct {
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	PriceDisplay  string `json:"price_display"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
	DisplayName   string `json:"display_name"`
	FetchedAt     string `json:"fetched_at,omitempty"`
}

func toQuoteJSON(q *domain.Quote) quoteJSON {
	out := quoteJSON{
		Symbol:        q.Symbol,
		Price:         q.Price.String(),
		PriceDisplay:  domain.FormatUSD(q.Price),
		Change:        q.Change.String(),
		PercentChange: q.PercentChange.String(),
		DisplayName:   q.DisplayName,
	}
	if q.FetchedAt != nil {
		out.FetchedAt = q.FetchedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}

// RegisterRoutes mounts the health, quote and search endpoints on h
func RegisterRoutes(h *server.Hertz, quotes QuoteFetcher, searcher Searcher, log *zap.Logger) {
	log = logger.OrNop(log)

	h.Use(observe)

	h.GET("/healthz", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})

	h.GET("/api/v1/quotes/:symbol", func(ctx context.Context, c *app.RequestContext) {
		symbol := domain.NormalizeSymbol(c.Param("symbol"))
		if symbol == "" {
			c.JSON(http.StatusBadRequest, map[string]any{"ok": false, "error": "symbol is required"})
			return
		}

		q, err := quotes.FetchQuote(ctx, symbol)
		if err != nil {
			log.Warn("quote lookup failed", zap.String("symbol", symbol), zap.Error(err))
			code := http.StatusBadGateway
			if errors.Is(err, context.DeadlineExceeded) {
				code = http.StatusGatewayTimeout
			}
			c.JSON(code, map[string]any{"ok": false, "error": "market data provider unavailable"})
			return
		}
		if q == nil {
			c.JSON(http.StatusNotFound, map[string]any{"ok": false, "error": "no quote available for " + symbol})
			return
		}

		c.JSON(http.StatusOK, toQuoteJSON(q))
	})

	h.GET("/api/v1/search", func(ctx context.Context, c *app.RequestContext) {
		results := searcher.Search(ctx, c.Query("q"))

		out := make([]quoteJSON, 0, len(results))
		for i := range results {
			out = append(out, toQuoteJSON(&results[i]))
		}
		c.JSON(http.StatusOK, map[string]any{"results": out})
	})
}

func observe(ctx context.Context, c *app.RequestContext) {
	start := time.Now()
	c.Next(ctx)

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	metrics.APIRequestDuration.
		WithLabelValues("http", route, strconv.Itoa(c.Response.StatusCode())).
		Observe(time.Since(start).Seconds())
}
