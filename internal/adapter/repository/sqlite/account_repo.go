package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/simaogato/stocksim-backend/internal/domain"
)

// accountRepository implements domain.AccountRepository over the users table
type accountRepository struct {
	db  *DB
	now func() time.Time
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db, now: time.Now}
}

// Get retrieves the account document stored for identity
func (r *accountRepository) Get(ctx context.Context, identity string) (*domain.UserAccount, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM users WHERE id = ?`, identity).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", identity, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var account domain.UserAccount
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", identity, err)
	}

	return &account, nil
}

// Create inserts the account unless a document already exists for identity
func (r *accountRepository) Create(ctx context.Context, identity string, account *domain.UserAccount) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	created := account.CreatedAt.UTC().Format(time.RFC3339Nano)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		identity, string(data), created, created,
	)
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
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		identity, string(data),
		account.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	return nil
}
