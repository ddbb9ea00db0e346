package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// GameMode represents the session type bounding how long a game runs
type GameMode string

const (
	GameModeQuick    GameMode = "quick"
	GameModeStandard GameMode = "standard"
	GameModeInfinite GameMode = "infinite"
)

// StartingBalance is the simulated cash every new account receives
var StartingBalance = decimal.NewFromInt(10000)

var (
	validate      = validator.New()
	tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)
)

func init() {
	// Symbols are compared in normalized form everywhere, so stored case does not matter
	validate.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return tickerPattern.MatchString(NormalizeSymbol(fl.Field().String()))
	})
}

// Valid reports whether m is one of the known game modes
func (m GameMode) Valid() bool {
	switch m {
	case GameModeQuick, GameModeStandard, GameModeInfinite:
		return true
	default:
		return false
	}
}

// ValidateGameParams checks that gameEndDate is nil exactly when the mode is infinite
func ValidateGameParams(mode GameMode, gameEndDate *time.Time) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown game mode %q", ErrInvalidGameParams, mode)
	}

	if mode == GameModeInfinite && gameEndDate != nil {
		return fmt.Errorf("%w: infinite game must not have an end date", ErrInvalidGameParams)
	}

	if mode != GameModeInfinite && gameEndDate == nil {
		return fmt.Errorf("%w: %s game must have an end date", ErrInvalidGameParams, mode)
	}

	return nil
}

// Holding represents a position of a number of shares in one instrument
// Adheres to the stock entries of a user document (symbol, shares, avgPrice)
type Holding struct {
	Symbol          string          `json:"symbol" validate:"required,ticker"`
	Shares          int64           `json:"shares" validate:"gt=0"`
	AvgCostPerShare decimal.Decimal `json:"avgPrice"`
}

// Validate ensures the holding adheres to domain rules
func (h *Holding) Validate() error {
	if err := validate.Struct(h); err != nil {
		return fmt.Errorf("invalid holding: %w", err)
	}

	if h.AvgCostPerShare.IsNegative() {
		return errors.New("holding average cost must not be negative")
	}

	return nil
}

// UserAccount represents the game state of one identity in the document store
// JSON names follow the stored "users" documents
type UserAccount struct {
	Email          string          `json:"email" validate:"required,email"`
	DisplayName    *string         `json:"name"`
	CashBalance    decimal.Decimal `json:"balance"`
	PortfolioValue decimal.Decimal `json:"portfolioValue"` // Last computed market value, advisory
	Holdings       []Holding       `json:"stocks"`
	CreatedAt      time.Time       `json:"createdAt" validate:"required"`
	GameMode       GameMode        `json:"gameMode" validate:"required"`
	GameEndDate    *time.Time      `json:"gameEndDate"` // NULL for infinite mode
}

// Validate ensures the account adheres to domain rules
func (a *UserAccount) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid account: %w", err)
	}

	if err := ValidateGameParams(a.GameMode, a.GameEndDate); err != nil {
		return err
	}

	for i := range a.Holdings {
		if err := a.Holdings[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// HeldSymbols returns the distinct symbols of the account's holdings in first-seen order
func (a *UserAccount) HeldSymbols() []string {
	seen := make(map[string]bool, len(a.Holdings))
	symbols := make([]string, 0, len(a.Holdings))
	for _, h := range a.Holdings {
		s := NormalizeSymbol(h.Symbol)
		if seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	return symbols
}

// ValuationResult is the derived performance of a set of holdings at a set of prices
// Not persisted, recomputed on demand
type ValuationResult struct {
	TotalMarketValue        decimal.Decimal
	TotalUnrealizedGainLoss decimal.Decimal
	PercentReturn           decimal.Decimal
}
