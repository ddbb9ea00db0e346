package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/simaogato/stocksim-backend/internal/domain"
)

// accountRepository implements domain.AccountRepository over the users table
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

// Get retrieves the account document stored for identity
func (r *accountRepository) Get(ctx context.Context, identity string) (*domain.UserAccount, error) {
	query := `
		SELECT data
		FROM users
		WHERE id = $1
	`

	var data []byte
	err := r.db.QueryRowContext(ctx, query, identity).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", identity, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var account domain.UserAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", identity, err)
	}

	return &account, nil
}

// Create inserts the account unless a document already exists for identity
func (r *accountRepository) Create(ctx context.Context, identity string, account *domain.UserAccount) error {
	query := `
		INSERT INTO users (id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO NOTHING
	`

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, identity, string(data), account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check account insert: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", identity, domain.ErrAlreadyExists)
	}

	return nil
}

// Save upserts the account document
func (r *accountRepository) Save(ctx context.Context, identity string, account *domain.UserAccount) error {
	query := `
		INSERT INTO users (id, data, created_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, identity, string(data), account.CreatedAt); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	return nil
}
