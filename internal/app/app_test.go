package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/simaogato/stocksim-backend/internal/adapter/cache/memory"
	"github.com/simaogato/stocksim-backend/internal/config"
	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Provider.APIKey = "test"
	cfg.Auth.JWTSecret = "secret"
	cfg.Store.SqlitePath = filepath.Join(t.TempDir(), "stocksim.db")
	return &cfg
}

func TestNew_SqliteAndMemoryCache(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Cache.MaxEntries = 100

	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &memory.Cache{}, a.Quotes.Cache)
	assert.Equal(t, 5, a.Search.Limit)
	require.NoError(t, a.Store.Migrate(ctx))

	acct, err := a.Accounts.Initialize(ctx, "u1", "u1@example.com", domain.GameModeInfinite, nil)
	require.NoError(t, err)
	assert.True(t, acct.CashBalance.Equal(domain.StartingBalance))

	stored, err := a.Accounts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", stored.Email)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "mongo"

	_, err := OpenStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewQuoteCache(t *testing.T) {
	cfg := testConfig(t)

	cache, closeFn, err := NewQuoteCache(cfg)
	require.NoError(t, err)
	assert.NotNil(t, cache)
	assert.NoError(t, closeFn())

	cfg.Cache.Backend = "memcached"
	_, _, err = NewQuoteCache(cfg)
	assert.Error(t, err)

	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisURL = "not a url"
	_, _, err = NewQuoteCache(cfg)
	assert.Error(t, err)
}

func TestNew_StoreFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "unknown"

	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open store")
}
