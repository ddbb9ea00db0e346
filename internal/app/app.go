// Package app assembles the stores, caches, provider client and services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/simaogato/stocksim-backend/internal/adapter/cache/memory"
	"github.com/simaogato/stocksim-backend/internal/adapter/cache/rediscache"
	"github.com/simaogato/stocksim-backend/internal/adapter/provider/finnhub"
	"github.com/simaogato/stocksim-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/stocksim-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/stocksim-backend/internal/config"
	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/simaogato/stocksim-backend/internal/logger"
	"github.com/simaogato/stocksim-backend/internal/usecase/account"
	"github.com/simaogato/stocksim-backend/internal/usecase/game"
	"github.com/simaogato/stocksim-backend/internal/usecase/quote"
	"github.com/simaogato/stocksim-backend/internal/usecase/search"
	"github.com/simaogato/stocksim-backend/internal/usecase/valuation"
	"go.uber.org/zap"
)

// Store is an opened document store
type Store struct {
	Accounts domain.AccountRepository
	Games    domain.CompletedGameRepository
	Migrate  func(ctx context.Context) error
	Close    func() error
}

// OpenStore opens the document store selected by cfg.Store.Driver
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.NewDB(cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		return &Store{
			Accounts: postgres.NewAccountRepository(db),
			Games:    postgres.NewCompletedGameRepository(db),
			Migrate:  db.Migrate,
			Close:    db.Close,
		}, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Store.SqlitePath)
		if err != nil {
			return nil, err
		}
		return &Store{
			Accounts: sqlite.NewAccountRepository(db),
			Games:    sqlite.NewCompletedGameRepository(db),
			Migrate:  db.Migrate,
			Close:    db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}

// NewQuoteCache builds the quote cache selected by cfg.Cache.Backend
// The returned close func is never nil
func NewQuoteCache(cfg *config.Config) (domain.QuoteCache, func() error, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		return memory.New(cfg.Cache.MaxEntries), func() error { return nil }, nil
	case "redis":
		c, err := rediscache.New(cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend: %q", cfg.Cache.Backend)
	}
}

// NewProvider builds the Finnhub client from cfg.Provider
func NewProvider(cfg *config.Config, log *zap.Logger) *finnhub.Client {
	return finnhub.NewClient(finnhub.Options{
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		APISecret:  cfg.Provider.APISecret,
		Exchange:   cfg.Provider.Exchange,
		Timeout:    cfg.ProviderTimeout(),
		MaxRetries: cfg.Provider.MaxRetries,
		Logger:     log,
	})
}

// App holds the wired services of one process
type App struct {
	Store     *Store
	Quotes    *quote.QuoteService
	Search    *search.SearchService
	Accounts  *account.AccountService
	Portfolio *valuation.PortfolioService
	Games     *game.GameService

	closeCache func() error
}

// New wires every service from cfg
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	cache, closeCache, err := NewQuoteCache(cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create quote cache: %w", err)
	}

	provider := NewProvider(cfg, log.Named("finnhub"))
	quotes := quote.NewQuoteService(cache, provider, log.Named("quote"))
	filter := search.NewDefaultFilter(cfg.Search.ExcludeDelimiters, cfg.Search.InstrumentTypes)
	portfolio := valuation.NewPortfolioService(store.Accounts, quotes)

	return &App{
		Store:      store,
		Quotes:     quotes,
		Search:     search.NewSearchService(provider, quotes, filter, cfg.Search.Limit, log.Named("search")),
		Accounts:   account.NewAccountService(store.Accounts, log.Named("account")),
		Portfolio:  portfolio,
		Games:      game.NewGameService(store.Accounts, store.Games, portfolio),
		closeCache: closeCache,
	}, nil
}

// Close releases the store and cache connections
func (a *App) Close() error {
	return errors.Join(a.closeCache(), a.Store.Close())
}
