//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	connStr := os.Getenv("DB_CONN_STR")
	if connStr == "" {
		connStr = "host=localhost port=5432 user=postgres password=postgres dbname=stocksim sslmode=disable"
	}

	db, err := NewDB(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestAccountRepository_CreateIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(openTestDB(t))
	identity := "it-" + uuid.NewString()

	account := &domain.UserAccount{
		Email:       "it@example.com",
		CashBalance: domain.StartingBalance,
		Holdings:    []domain.Holding{},
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		GameMode:    domain.GameModeInfinite,
	}

	_, err := repo.Get(ctx, identity)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, repo.Create(ctx, identity, account))

	other := *account
	other.CashBalance = decimal.NewFromInt(1)
	err = repo.Create(ctx, identity, &other)
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))

	stored, err := repo.Get(ctx, identity)
	require.NoError(t, err)
	assert.True(t, stored.CashBalance.Equal(domain.StartingBalance))
	assert.True(t, stored.CreatedAt.Equal(account.CreatedAt))

	stored.PortfolioValue = decimal.NewFromInt(250)
	require.NoError(t, repo.Save(ctx, identity, stored))

	reloaded, err := repo.Get(ctx, identity)
	require.NoError(t, err)
	assert.True(t, reloaded.PortfolioValue.Equal(decimal.NewFromInt(250)))
}

func TestCompletedGameRepository_ListByMode(t *testing.T) {
	ctx := context.Background()
	repo := NewCompletedGameRepository(openTestDB(t))
	mode := domain.GameModeQuick
	owner := "it-" + uuid.NewString()

	for _, pct := range []int64{-5, 30, 12} {
		require.NoError(t, repo.Add(ctx, &domain.CompletedGame{
			ID:               uuid.New(),
			Identity:         owner,
			EndDate:          time.Now().UTC(),
			StartingBalance:  domain.StartingBalance,
			PercentageChange: decimal.NewFromInt(pct),
			GameMode:         mode,
		}))
	}

	games, err := repo.ListByMode(ctx, mode, 100)
	require.NoError(t, err)

	var mine []*domain.CompletedGame
	for _, g := range games {
		if g.Identity == owner {
			mine = append(mine, g)
		}
	}
	require.Len(t, mine, 3)
	assert.True(t, mine[0].PercentageChange.Equal(decimal.NewFromInt(30)))
	assert.True(t, mine[2].PercentageChange.Equal(decimal.NewFromInt(-5)))
}
