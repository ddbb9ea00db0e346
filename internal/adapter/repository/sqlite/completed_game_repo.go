package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

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
// percentage_change is kept as REAL for ordering only; the document holds the exact value
func (r *completedGameRepository) Add(ctx context.Context, game *domain.CompletedGame) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to encode completed game: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO completed_games (id, identity, game_mode, percentage_change, data, end_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		game.ID.String(),
		game.Identity,
		string(game.GameMode),
		game.PercentageChange.InexactFloat64(),
		string(data),
		game.EndDate.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert completed game: %w", err)
	}

	return nil
}

// ListByMode returns the completed games of a mode, best percentage change first
func (r *completedGameRepository) ListByMode(ctx context.Context, mode domain.GameMode, limit int) ([]*domain.CompletedGame, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM completed_games
		 WHERE game_mode = ?
		 ORDER BY percentage_change DESC, end_date ASC
		 LIMIT ?`,
		string(mode), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed games: %w", err)
	}
	defer rows.Close()

	var games []*domain.CompletedGame
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan completed game: %w", err)
		}

		var game domain.CompletedGame
		if err := json.Unmarshal([]byte(data), &game); err != nil {
			return nil, fmt.Errorf("failed to decode completed game: %w", err)
		}
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completed games: %w", err)
	}

	return games, nil
}
