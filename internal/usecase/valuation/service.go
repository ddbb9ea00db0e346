package valuation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/stocksim-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Valuate computes market value, unrealized gain/loss and percent return for holdings
// Logic:
//   - MarketValue: sum of price * shares; a symbol without a price counts as 0
//   - Cost: sum of average cost * shares
//   - PercentReturn: gain/loss over cost in percent, 0 when cost is 0
func Valuate(holdings []domain.Holding, prices map[string]decimal.Decimal) domain.ValuationResult {
	marketValue := decimal.Zero
	cost := decimal.Zero

	for _, h := range holdings {
		shares := decimal.NewFromInt(h.Shares)
		if price, ok := prices[domain.NormalizeSymbol(h.Symbol)]; ok {
			marketValue = marketValue.Add(price.Mul(shares))
		}
		cost = cost.Add(h.AvgCostPerShare.Mul(shares))
	}

	gainLoss := marketValue.Sub(cost)
	percentReturn := decimal.Zero
	if cost.IsPositive() {
		percentReturn = gainLoss.Div(cost).Mul(hundred)
	}

	return domain.ValuationResult{
		TotalMarketValue:        marketValue,
		TotalUnrealizedGainLoss: gainLoss,
		PercentReturn:           percentReturn,
	}
}

// PriceSource builds the symbol to price map for a set of symbols
type PriceSource interface {
	Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// PortfolioService handles revaluation of stored accounts
type PortfolioService struct {
	AccountRepo domain.AccountRepository
	Prices      PriceSource
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(accountRepo domain.AccountRepository, prices PriceSource) *PortfolioService {
	return &PortfolioService{
		AccountRepo: accountRepo,
		Prices:      prices,
	}
}

// Revalue prices the holdings of identity's account and stores the new portfolio value
func (s *PortfolioService) Revalue(ctx context.Context, identity string) (*domain.ValuationResult, error) {
	account, err := s.AccountRepo.Get(ctx, identity)
	if err != nil {
		return nil, err
	}

	result, err := s.valuate(ctx, account)
	if err != nil {
		return nil, err
	}

	account.PortfolioValue = result.TotalMarketValue
	if err := s.AccountRepo.Save(ctx, identity, account); err != nil {
		return nil, fmt.Errorf("failed to save portfolio value: %w", err)
	}

	return result, nil
}

// Current prices the holdings of an account without persisting anything
func (s *PortfolioService) Current(ctx context.Context, account *domain.UserAccount) (*domain.ValuationResult, error) {
	return s.valuate(ctx, account)
}

func (s *PortfolioService) valuate(ctx context.Context, account *domain.UserAccount) (*domain.ValuationResult, error) {
	prices, err := s.Prices.Prices(ctx, account.HeldSymbols())
	if err != nil {
		return nil, fmt.Errorf("failed to price holdings: %w", err)
	}
	result := Valuate(account.Holdings, prices)
	return &result, nil
}
