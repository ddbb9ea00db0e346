package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAccountRepository is a mock implementation of AccountRepository for testing
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Get(ctx context.Context, identity string) (*domain.UserAccount, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserAccount), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, identity string, account *domain.UserAccount) error {
	args := m.Called(ctx, identity, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Save(ctx context.Context, identity string, account *domain.UserAccount) error {
	args := m.Called(ctx, identity, account)
	return args.Error(0)
}

// MockCompletedGameRepository is a mock implementation of CompletedGameRepository for testing
type MockCompletedGameRepository struct {
	mock.Mock
}

func (m *MockCompletedGameRepository) Add(ctx context.Context, game *domain.CompletedGame) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockCompletedGameRepository) ListByMode(ctx context.Context, mode domain.GameMode, limit int) ([]*domain.CompletedGame, error) {
	args := m.Called(ctx, mode, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CompletedGame), args.Error(1)
}

// MockPortfolioValuer is a mock implementation of PortfolioValuer for testing
type MockPortfolioValuer struct {
	mock.Mock
}

func (m *MockPortfolioValuer) Current(ctx context.Context, account *domain.UserAccount) (*domain.ValuationResult, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValuationResult), args.Error(1)
}

var now = time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)

func newService() (*GameService, *MockAccountRepository, *MockCompletedGameRepository, *MockPortfolioValuer) {
	accounts := new(MockAccountRepository)
	games := new(MockCompletedGameRepository)
	valuer := new(MockPortfolioValuer)
	service := NewGameService(accounts, games, valuer)
	service.Now = func() time.Time { return now }
	return service, accounts, games, valuer
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	service, accounts, games, valuer := newService()

	name := "Ada"
	end := now
	account := &domain.UserAccount{
		Email:       "ada@example.com",
		DisplayName: &name,
		CashBalance: decimal.NewFromInt(4000),
		CreatedAt:   now.Add(-10 * 24 * time.Hour),
		GameMode:    domain.GameModeStandard,
		GameEndDate: &end,
	}
	accounts.On("Get", ctx, "u1").Return(account, nil)
	valuer.On("Current", ctx, account).Return(&domain.ValuationResult{TotalMarketValue: decimal.NewFromInt(7000)}, nil)
	games.On("Add", ctx, mock.AnythingOfType("*domain.CompletedGame")).Return(nil)

	game, err := service.Complete(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, "u1", game.Identity)
	assert.True(t, game.EndingBalance.Equal(decimal.NewFromInt(11000)))
	assert.True(t, game.GainLoss.Equal(decimal.NewFromInt(1000)))
	assert.True(t, game.PercentageChange.Equal(decimal.NewFromInt(10)))
	assert.True(t, game.StartingBalance.Equal(domain.StartingBalance))
	assert.Equal(t, 10, game.DurationDays)
	assert.Equal(t, domain.GameModeStandard, game.GameMode)
	assert.Equal(t, &name, game.DisplayName)
	assert.Equal(t, now, game.EndDate)
	assert.NotEmpty(t, game.ID.String())
	games.AssertExpectations(t)
}

func TestComplete_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("account missing", func(t *testing.T) {
		service, accounts, games, _ := newService()
		accounts.On("Get", ctx, "ghost").Return(nil, domain.ErrNotFound)

		_, err := service.Complete(ctx, "ghost")

		assert.True(t, errors.Is(err, domain.ErrNotFound))
		games.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("pricing fails", func(t *testing.T) {
		service, accounts, games, valuer := newService()
		account := &domain.UserAccount{GameMode: domain.GameModeInfinite}
		accounts.On("Get", ctx, "u1").Return(account, nil)
		valuer.On("Current", ctx, account).Return(nil, errors.New("provider unavailable"))

		_, err := service.Complete(ctx, "u1")

		assert.Error(t, err)
		games.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("store fails", func(t *testing.T) {
		service, accounts, games, valuer := newService()
		account := &domain.UserAccount{GameMode: domain.GameModeInfinite, CreatedAt: now}
		accounts.On("Get", ctx, "u1").Return(account, nil)
		valuer.On("Current", ctx, account).Return(&domain.ValuationResult{}, nil)
		games.On("Add", ctx, mock.Anything).Return(errors.New("disk full"))

		_, err := service.Complete(ctx, "u1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to record completed game")
	})
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	service, _, games, _ := newService()

	board := []*domain.CompletedGame{{Identity: "a"}, {Identity: "b"}}
	games.On("ListByMode", ctx, domain.GameModeQuick, DefaultLeaderboardSize).Return(board, nil)

	got, err := service.Leaderboard(ctx, domain.GameModeQuick, 0)

	require.NoError(t, err)
	assert.Equal(t, board, got)
}

func TestLeaderboard_UnknownMode(t *testing.T) {
	service, _, games, _ := newService()

	_, err := service.Leaderboard(context.Background(), domain.GameMode("blitz"), 5)

	assert.True(t, errors.Is(err, domain.ErrInvalidGameParams))
	games.AssertNotCalled(t, "ListByMode", mock.Anything, mock.Anything, mock.Anything)
}

func TestTimeRemaining(t *testing.T) {
	ctx := context.Background()
	inNineDays := now.Add(9*24*time.Hour + time.Hour)
	past := now.Add(-time.Minute)

	tests := []struct {
		name    string
		account *domain.UserAccount
		want    string
	}{
		{"infinite", &domain.UserAccount{GameMode: domain.GameModeInfinite}, NoTimeLimit},
		{"weeks and days", &domain.UserAccount{GameMode: domain.GameModeStandard, GameEndDate: &inNineDays}, "1 week and 2 days left"},
		{"expired", &domain.UserAccount{GameMode: domain.GameModeQuick, GameEndDate: &past}, "Game Over"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, accounts, _, _ := newService()
			accounts.On("Get", ctx, "u1").Return(tt.account, nil)

			got, err := service.TimeRemaining(ctx, "u1")

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
