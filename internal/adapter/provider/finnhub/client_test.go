package finnhub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Options{
		BaseURL:      server.URL,
		APIKey:       "test-key",
		APISecret:    "test-secret",
		Exchange:     "US",
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	return client, &calls
}

func TestClient_Quote(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		assert.Equal(t, "test-secret", r.Header.Get("X-Finnhub-Secret"))
		fmt.Fprint(w, `{"c":189.84,"d":-1.2,"dp":-0.6282,"h":191.5,"l":188.2,"o":190.9,"pc":191.04,"t":1709582400}`)
	})

	q, err := client.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	require.NotNil(t, q)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "AAPL", q.DisplayName)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("189.84")))
	assert.True(t, q.Change.Equal(decimal.RequireFromString("-1.2")))
	assert.True(t, q.PercentChange.Equal(decimal.RequireFromString("-0.6282")))
	assert.Nil(t, q.FetchedAt)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestClient_QuoteWithoutPrice(t *testing.T) {
	bodies := map[string]string{
		"missing c":    `{"d":null,"dp":null}`,
		"null c":       `{"c":null,"d":null,"dp":null}`,
		"zero c":       `{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`,
		"empty object": `{}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			})

			q, err := client.Quote(context.Background(), "WARRANT")
			assert.NoError(t, err)
			assert.Nil(t, q)
		})
	}
}

func TestClient_QuoteMalformedResponse(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>rate limited</html>`)
	})

	q, err := client.Quote(context.Background(), "AAPL")
	assert.Error(t, err)
	assert.Nil(t, q)
	assert.Contains(t, err.Error(), "decode response")
	// Decode errors are not retried
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestClient_QuoteRetriesServerErrors(t *testing.T) {
	var attempts int32
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"c":10,"d":1,"dp":10}`)
	})

	q, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestClient_QuoteGivesUpAfterMaxRetries(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Quote(context.Background(), "AAPL")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestClient_QuoteClientErrorIsPermanent(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Quote(context.Background(), "AAPL")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestClient_Search(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("q"))
		assert.Equal(t, "US", r.URL.Query().Get("exchange"))
		fmt.Fprint(w, `{"count":3,"result":[
			{"description":"APPLE INC","displaySymbol":"AAPL","symbol":"AAPL","type":"Common Stock"},
			{"description":"APPLE INC","displaySymbol":"AAPL.SW","symbol":"AAPL.SW","type":"Common Stock"},
			{"description":"","displaySymbol":"","symbol":"","type":""}
		]}`)
	})

	matches, err := client.Search(context.Background(), "apple")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "AAPL", matches[0].Symbol)
	assert.Equal(t, "APPLE INC", matches[0].Description)
	assert.Equal(t, "Common Stock", matches[0].Type)
	assert.Equal(t, "AAPL.SW", matches[1].Symbol)
}

func TestClient_SearchWithoutResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":0}`)
	})

	matches, err := client.Search(context.Background(), "zzzz")
	assert.NoError(t, err)
	assert.Empty(t, matches)
}

func TestClient_ContextCanceled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"c":1}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Quote(ctx, "AAPL")
	assert.Error(t, err)
}
