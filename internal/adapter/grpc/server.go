package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/stocksim-backend/internal/domain"
	"github.com/simaogato/stocksim-backend/internal/usecase/account"
	"github.com/simaogato/stocksim-backend/internal/usecase/game"
	"github.com/simaogato/stocksim-backend/internal/usecase/quote"
	"github.com/simaogato/stocksim-backend/internal/usecase/search"
	"github.com/simaogato/stocksim-backend/internal/usecase/valuation"
)

// Server implements the StockSimService gRPC server
type Server struct {
	QuoteService     *quote.QuoteService
	SearchService    *search.SearchService
	AccountService   *account.AccountService
	PortfolioService *valuation.PortfolioService
	GameService      *game.GameService
}

// NewServer creates a new gRPC server instance
func NewServer(
	quoteService *quote.QuoteService,
	searchService *search.SearchService,
	accountService *account.AccountService,
	portfolioService *valuation.PortfolioService,
	gameService *game.GameService,
) *Server {
	return &Server{
		QuoteService:     quoteService,
		SearchService:    searchService,
		AccountService:   accountService,
		PortfolioService: portfolioService,
		GameService:      gameService,
	}
}

// GetQuote handles the GetQuote RPC
func (s *Server) GetQuote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	symbol := domain.NormalizeSymbol(stringField(req, "symbol"))
	if symbol == "" {
		return nil, status.Error(codes.InvalidArgument, "symbol is required")
	}

	q, err := s.QuoteService.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, mapError(err)
	}
	if q == nil {
		return nil, status.Errorf(codes.NotFound, "no quote available for %s", symbol)
	}

	return newStruct(map[string]interface{}{"quote": quoteToMap(q)})
}

// SearchSymbols handles the SearchSymbols RPC
func (s *Server) SearchSymbols(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	quotes := s.SearchService.Search(ctx, stringField(req, "query"))

	results := make([]interface{}, 0, len(quotes))
	for i := range quotes {
		results = append(results, quoteToMap(&quotes[i]))
	}

	return newStruct(map[string]interface{}{"results": results})
}

// InitializeAccount handles the InitializeAccount RPC
func (s *Server) InitializeAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	mode := domain.GameMode(stringField(req, "game_mode"))
	if mode == "" {
		mode = domain.GameModeInfinite
	}

	// Parse optional end date
	var end *time.Time
	if raw := stringField(req, "game_end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid game_end_date format: %v", err)
		}
		end = &t
	}

	acct, err := s.AccountService.Initialize(ctx, identity, stringField(req, "email"), mode, end)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(map[string]interface{}{"account": accountToMap(acct)})
}

// GetAccount handles the GetAccount RPC
func (s *Server) GetAccount(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	acct, err := s.AccountService.Get(ctx, identity)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(map[string]interface{}{"account": accountToMap(acct)})
}

// ValuatePortfolio handles the ValuatePortfolio RPC
// The computed market value is stored on the account
func (s *Server) ValuatePortfolio(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.PortfolioService.Revalue(ctx, identity)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(map[string]interface{}{
		"total_market_value":         result.TotalMarketValue.String(),
		"total_market_value_display": domain.FormatUSD(result.TotalMarketValue),
		"total_unrealized_gain_loss": result.TotalUnrealizedGainLoss.String(),
		"gain_loss_display":          domain.FormatUSD(result.TotalUnrealizedGainLoss),
		"percent_return":             result.PercentReturn.StringFixed(2),
	})
}

// CompleteGame handles the CompleteGame RPC
func (s *Server) CompleteGame(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	g, err := s.GameService.Complete(ctx, identity)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(map[string]interface{}{"game": gameToMap(g)})
}

// GetLeaderboard handles the GetLeaderboard RPC
func (s *Server) GetLeaderboard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	mode := domain.GameMode(stringField(req, "game_mode"))
	limit := int(req.GetFields()["limit"].GetNumberValue())

	games, err := s.GameService.Leaderboard(ctx, mode, limit)
	if err != nil {
		return nil, mapError(err)
	}

	entries := make([]interface{}, 0, len(games))
	for _, g := range games {
		entries = append(entries, gameToMap(g))
	}

	return newStruct(map[string]interface{}{"games": entries})
}

// GetTimeRemaining handles the GetTimeRemaining RPC
func (s *Server) GetTimeRemaining(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	remaining, err := s.GameService.TimeRemaining(ctx, identity)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(map[string]interface{}{"time_remaining": remaining})
}

func requireIdentity(ctx context.Context) (string, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "caller identity required")
	}
	return identity, nil
}

func stringField(req *structpb.Struct, name string) string {
	return strings.TrimSpace(req.GetFields()[name].GetStringValue())
}

func newStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build response: %v", err)
	}
	return out, nil
}

// quoteToMap converts a domain Quote to its wire document
func quoteToMap(q *domain.Quote) map[string]interface{} {
	m := map[string]interface{}{
		"symbol":         q.Symbol,
		"price":          q.Price.String(),
		"price_display":  domain.FormatUSD(q.Price),
		"change":         q.Change.String(),
		"percent_change": q.PercentChange.String(),
		"display_name":   q.DisplayName,
	}
	if q.FetchedAt != nil {
		m["fetched_at"] = q.FetchedAt.UTC().Format(time.RFC3339Nano)
	}
	return m
}

// accountToMap converts a domain UserAccount to its wire document
func accountToMap(a *domain.UserAccount) map[string]interface{} {
	holdings := make([]interface{}, 0, len(a.Holdings))
	for _, h := range a.Holdings {
		holdings = append(holdings, map[string]interface{}{
			"symbol":             h.Symbol,
			"shares":             h.Shares,
			"avg_cost_per_share": h.AvgCostPerShare.String(),
		})
	}

	m := map[string]interface{}{
		"email":                   a.Email,
		"cash_balance":            a.CashBalance.String(),
		"cash_balance_display":    domain.FormatUSD(a.CashBalance),
		"portfolio_value":         a.PortfolioValue.String(),
		"portfolio_value_display": domain.FormatUSD(a.PortfolioValue),
		"holdings":                holdings,
		"created_at":              a.CreatedAt.UTC().Format(time.RFC3339Nano),
		"game_mode":               string(a.GameMode),
		"display_name":            nil,
		"game_end_date":           nil,
	}
	if a.DisplayName != nil {
		m["display_name"] = *a.DisplayName
	}
	if a.GameEndDate != nil {
		m["game_end_date"] = a.GameEndDate.UTC().Format(time.RFC3339Nano)
	}
	return m
}

// gameToMap converts a domain CompletedGame to its wire document
func gameToMap(g *domain.CompletedGame) map[string]interface{} {
	m := map[string]interface{}{
		"id":                     g.ID.String(),
		"identity":               g.Identity,
		"end_date":               g.EndDate.UTC().Format(time.RFC3339Nano),
		"starting_balance":       g.StartingBalance.String(),
		"ending_balance":         g.EndingBalance.String(),
		"ending_balance_display": domain.FormatUSD(g.EndingBalance),
		"gain_loss":              g.GainLoss.String(),
		"percentage_change":      g.PercentageChange.StringFixed(2),
		"game_mode":              string(g.GameMode),
		"duration_days":          g.DurationDays,
		"display_name":           nil,
	}
	if g.DisplayName != nil {
		m["display_name"] = *g.DisplayName
	}
	return m
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, domain.ErrAlreadyExists):
		return status.Errorf(codes.AlreadyExists, "%s", errorMsg)
	case errors.Is(err, domain.ErrInvalidGameParams), errors.As(err, &validationErrs):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	case errors.Is(err, domain.ErrProviderUnavailable):
		return status.Errorf(codes.Unavailable, "%s", errorMsg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", errorMsg)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}
