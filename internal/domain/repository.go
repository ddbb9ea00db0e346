package domain

import (
	"context"
	"time"
)

// AccountRepository defines the interface for the "users" document collection
// Documents are keyed by the identity resolved by the auth provider
type AccountRepository interface {
	// Get retrieves the account stored for identity
	// Returns an error wrapping ErrNotFound if no document exists
	Get(ctx context.Context, identity string) (*UserAccount, error)

	// Create stores a new account only if no document exists for identity
	// Returns an error wrapping ErrAlreadyExists if another writer got there first
	Create(ctx context.Context, identity string, account *UserAccount) error

	// Save upserts the account document
	Save(ctx context.Context, identity string, account *UserAccount) error
}

// CompletedGameRepository defines the interface for completed game persistence
type CompletedGameRepository interface {
	// Add stores a completed game
	Add(ctx context.Context, game *CompletedGame) error

	// ListByMode returns completed games of a mode ordered by percentage change, best first
	ListByMode(ctx context.Context, mode GameMode, limit int) ([]*CompletedGame, error)
}

// QuoteCache defines a symbol keyed quote store with TTL based validity
type QuoteCache interface {
	// Get returns the cached quote for symbol if it is still fresh at now
	// Returns nil, nil when the entry is absent or stale
	Get(ctx context.Context, symbol string, now time.Time) (*CachedQuote, error)

	// Put stores quote as fetched at now, overwriting any previous entry
	Put(ctx context.Context, quote Quote, now time.Time) error
}

// QuoteProvider defines the external market-data API
type QuoteProvider interface {
	// Quote looks up the current quote for symbol
	// Returns nil, nil when the provider has no usable price for the symbol
	Quote(ctx context.Context, symbol string) (*Quote, error)

	// Search returns the provider's instrument matches for query
	Search(ctx context.Context, query string) ([]SearchMatch, error)
}
