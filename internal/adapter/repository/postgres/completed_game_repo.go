package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/simaogato/stocksim-backend/internal/domain"
)

// completedGameRepository implements domain.CompletedGameRepository
type completedGameRepository struct {
	db *DB
}

// NewCompletedGameRepository creates a new completed game repository
func NewCompletedGameRepository(db *DB) domain.CompletedGameRepository {
	return &completedGameRepository{db: db}
}

// Add stores a completed game
func (r *completedGameRepository) Add(ctx context.Context, game *domain.CompletedGame) error {
	query := `
		INSERT INTO completed_games (id, identity, game_mode, percentage_change, data, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to encode completed game: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		game.ID,
		game.Identity,
		string(game.GameMode),
		game.PercentageChange.String(),
		string(data),
		game.EndDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert completed game: %w", err)
	}

	return nil
}

// ListByMode returns the completed games of a mode, best percentage change first
func (r *completedGameRepository) ListByMode(ctx context.Context, mode domain.GameMode, limit int) ([]*domain.CompletedGame, error) {
	query := `
		SELECT data
		FROM completed_games
		WHERE game_mode = $1
		ORDER BY percentage_change DESC, end_date ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, string(mode), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed games: %w", err)
	}
	defer rows.Close()

	var games []*domain.CompletedGame
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan completed game: %w", err)
		}

		var game domain.CompletedGame
		if err := json.Unmarshal(data, &game); err != nil {
			return nil, fmt.Errorf("failed to decode completed game: %w", err)
		}
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completed games: %w", err)
	}

	return games, nil
}
