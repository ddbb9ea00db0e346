package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/stocksim-backend/internal/domain"
)

// DefaultLeaderboardSize is used when a caller asks for a non-positive number of entries
const DefaultLeaderboardSize = 10

// NoTimeLimit is reported as the time remaining of an infinite game
const NoTimeLimit = "No time limit"

// PortfolioValuer prices an account's holdings at current quotes
type PortfolioValuer interface {
	Current(ctx context.Context, account *domain.UserAccount) (*domain.ValuationResult, error)
}

// GameService handles game completion, leaderboards and remaining time
type GameService struct {
	AccountRepo domain.AccountRepository
	GameRepo    domain.CompletedGameRepository
	Valuer      PortfolioValuer
	Now         func() time.Time
}

// NewGameService creates a new GameService instance
func NewGameService(accountRepo domain.AccountRepository, gameRepo domain.CompletedGameRepository, valuer PortfolioValuer) *GameService {
	return &GameService{
		AccountRepo: accountRepo,
		GameRepo:    gameRepo,
		Valuer:      valuer,
		Now:         time.Now,
	}
}

// Complete freezes the current result of identity's game and records it
// Logic:
//   - EndingBalance: cash + market value of holdings at current quotes
//   - GainLoss: EndingBalance - StartingBalance
//   - PercentageChange: GainLoss / StartingBalance * 100
//   - DurationDays: whole days since the account was created
func (s *GameService) Complete(ctx context.Context, identity string) (*domain.CompletedGame, error) {
	account, err := s.AccountRepo.Get(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	valuation, err := s.Valuer.Current(ctx, account)
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC().Truncate(time.Millisecond)
	ending := account.CashBalance.Add(valuation.TotalMarketValue)
	gainLoss := ending.Sub(domain.StartingBalance)

	duration := 0
	if now.After(account.CreatedAt) {
		duration = int(now.Sub(account.CreatedAt) / (24 * time.Hour))
	}

	game := &domain.CompletedGame{
		ID:               uuid.New(),
		Identity:         identity,
		EndDate:          now,
		StartingBalance:  domain.StartingBalance,
		EndingBalance:    ending,
		GainLoss:         gainLoss,
		PercentageChange: gainLoss.Div(domain.StartingBalance).Mul(decimal.NewFromInt(100)),
		GameMode:         account.GameMode,
		DurationDays:     duration,
		DisplayName:      account.DisplayName,
	}

	if err := s.GameRepo.Add(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to record completed game: %w", err)
	}

	return game, nil
}

// Leaderboard returns the best completed games of a mode, highest percentage change first
func (s *GameService) Leaderboard(ctx context.Context, mode domain.GameMode, limit int) ([]*domain.CompletedGame, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown game mode %q", domain.ErrInvalidGameParams, mode)
	}
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	games, err := s.GameRepo.ListByMode(ctx, mode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed games: %w", err)
	}
	return games, nil
}

// TimeRemaining describes how long identity's game still runs
func (s *GameService) TimeRemaining(ctx context.Context, identity string) (string, error) {
	account, err := s.AccountRepo.Get(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("failed to load account: %w", err)
	}

	if account.GameMode == domain.GameModeInfinite || account.GameEndDate == nil {
		return NoTimeLimit, nil
	}
	return domain.FormatTimeRemaining(*account.GameEndDate, s.Now()), nil
}
