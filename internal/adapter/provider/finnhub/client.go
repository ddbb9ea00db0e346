// Package finnhub implements domain.QuoteProvider against the Finnhub REST API.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/simaogato/stocksim-backend/internal/logger"
	"github.com/simaogato/stocksim-backend/internal/metrics"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://finnhub.io/api/v1"

// Options configures a Client
type Options struct {
	BaseURL   string
	APIKey    string
	APISecret string
	// Exchange restricts symbol search, e.g. "US"; empty means no restriction
	Exchange string
	Timeout  time.Duration
	// MaxRetries is the number of extra attempts on transient transport errors
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *zap.Logger
}

// Client is a Finnhub HTTP client
type Client struct {
	baseURL      string
	apiKey       string
	apiSecret    string
	exchange     string
	maxRetries   int
	retryBackoff time.Duration
	client       *http.Client
	logger       *zap.Logger
}

type quoteResp struct {
	Current       *decimal.Decimal `json:"c"`
	Change        *decimal.Decimal `json:"d"`
	PercentChange *decimal.Decimal `json:"dp"`
}

type searchResp struct {
	Count  int           `json:"count"`
	Result []searchMatch `json:"result"`
}

type searchMatch struct {
	Description   string `json:"description"`
	DisplaySymbol string `json:"displaySymbol"`
	Symbol        string `json:"symbol"`
	Type          string `json:"type"`
}

// statusError is a non-2xx provider response
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.status)
}

// NewClient creates a Finnhub client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 150 * time.Millisecond
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		apiKey:       opts.APIKey,
		apiSecret:    opts.APISecret,
		exchange:     opts.Exchange,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
		client:       &http.Client{Timeout: opts.Timeout},
		logger:       logger.OrNop(opts.Logger),
	}
}

// Quote fetches the current quote for symbol
// A response without a current price yields nil, nil
func (c *Client) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	params := url.Values{}
	params.Set("symbol", symbol)

	var payload quoteResp
	if err := c.getJSON(ctx, "quote", "/quote", params, &payload); err != nil {
		return nil, fmt.Errorf("%w: request finnhub quote for %s: %w", domain.ErrProviderUnavailable, symbol, err)
	}

	// Finnhub answers unknown symbols with c = 0
	if payload.Current == nil || !payload.Current.IsPositive() {
		metrics.QuotesUnavailable.Inc()
		c.logger.Debug("no price in quote response", zap.String("symbol", symbol))
		return nil, nil
	}

	return &domain.Quote{
		Symbol:        symbol,
		Price:         *payload.Current,
		Change:        valueOrZero(payload.Change),
		PercentChange: valueOrZero(payload.PercentChange),
		DisplayName:   symbol,
	}, nil
}

// Search returns instrument matches for query; a missing result list is an empty slice
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchMatch, error) {
	params := url.Values{}
	params.Set("q", query)
	if c.exchange != "" {
		params.Set("exchange", c.exchange)
	}

	var payload searchResp
	if err := c.getJSON(ctx, "search", "/search", params, &payload); err != nil {
		return nil, fmt.Errorf("%w: request finnhub search for %q: %w", domain.ErrProviderUnavailable, query, err)
	}

	matches := make([]domain.SearchMatch, 0, len(payload.Result))
	for _, m := range payload.Result {
		if m.Symbol == "" {
			continue
		}
		matches = append(matches, domain.SearchMatch{
			Symbol:      m.Symbol,
			Description: m.Description,
			Type:        m.Type,
		})
	}
	return matches, nil
}

func (c *Client) getJSON(ctx context.Context, operation, path string, params url.Values, out interface{}) error {
	params.Set("token", c.apiKey)
	addr := c.baseURL + path + "?" + params.Encode()

	start := time.Now()
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		if c.apiSecret != "" {
			req.Header.Set("X-Finnhub-Secret", c.apiSecret)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if shouldRetry(err) {
				c.logger.Warn("transient provider error, retrying",
					zap.String("operation", operation), zap.Int("attempt", attempt), zap.Error(err))
				return err
			}
			return backoff.Permanent(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			// drain so the connection can be reused
			_, _ = io.Copy(io.Discard, resp.Body)
			serr := &statusError{code: resp.StatusCode, status: resp.Status}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return serr
			}
			return backoff.Permanent(serr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	err := backoff.Retry(op, c.newBackOff(ctx))
	metrics.ProviderRequestDuration.WithLabelValues(operation, metrics.Status(err)).Observe(time.Since(start).Seconds())
	return err
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBackoff
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "connection refused")
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
