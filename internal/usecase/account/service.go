package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/simaogato/stocksim-backend/internal/logger"
	"github.com/simaogato/stocksim-backend/internal/metrics"
	"go.uber.org/zap"
)

// AccountService handles creation and lookup of user game accounts
type AccountService struct {
	Repo   domain.AccountRepository
	Now    func() time.Time
	Logger *zap.Logger
}

// NewAccountService creates a new AccountService instance
func NewAccountService(repo domain.AccountRepository, log *zap.Logger) *AccountService {
	return &AccountService{
		Repo:   repo,
		Now:    time.Now,
		Logger: logger.OrNop(log),
	}
}

// Initialize ensures an account exists for identity and returns the stored record
// An existing account is returned unchanged, whatever game parameters are passed
// Logic:
//   - Found: return it
//   - Not found: build a fresh account with StartingBalance and create it conditionally
//   - Lost a concurrent create: re-read and return the winner's record
func (s *AccountService) Initialize(ctx context.Context, identity, email string, mode domain.GameMode, gameEndDate *time.Time) (*domain.UserAccount, error) {
	if identity == "" {
		return nil, errors.New("identity cannot be empty")
	}

	existing, err := s.Repo.Get(ctx, identity)
	if err == nil {
		metrics.AccountInitializations.WithLabelValues("existing").Inc()
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		metrics.AccountInitializations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	// Game parameters only matter for a fresh account
	if err := domain.ValidateGameParams(mode, gameEndDate); err != nil {
		return nil, err
	}

	account := &domain.UserAccount{
		Email:          email,
		CashBalance:    domain.StartingBalance,
		PortfolioValue: decimal.NewFromInt(0), // same exponent as a decoded "0"
		Holdings:       []domain.Holding{},
		CreatedAt:      s.Now().UTC().Truncate(time.Millisecond),
		GameMode:       mode,
		GameEndDate:    normalizeEndDate(gameEndDate),
	}

	// Validate before creating
	if err := account.Validate(); err != nil {
		return nil, err
	}

	err = s.Repo.Create(ctx, identity, account)
	switch {
	case err == nil:
		metrics.AccountInitializations.WithLabelValues("created").Inc()
		s.Logger.Info("account initialized", zap.String("identity", identity), zap.String("game_mode", string(mode)))
		return account, nil
	case errors.Is(err, domain.ErrAlreadyExists):
		metrics.AccountInitializations.WithLabelValues("raced").Inc()
		stored, err := s.Repo.Get(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("failed to reload account: %w", err)
		}
		return stored, nil
	default:
		metrics.AccountInitializations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
}

// Get returns the stored account for identity
func (s *AccountService) Get(ctx context.Context, identity string) (*domain.UserAccount, error) {
	account, err := s.Repo.Get(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

func normalizeEndDate(end *time.Time) *time.Time {
	if end == nil {
		return nil
	}
	t := end.UTC().Truncate(time.Millisecond)
	return &t
}
