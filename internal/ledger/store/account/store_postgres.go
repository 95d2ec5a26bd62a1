package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"launder/internal/ledger/models"
	"launder/pkg/platform/sentinel"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ledger_accounts (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	created_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the schema when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate ledger accounts: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, account *models.Account) (*models.Account, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_accounts (id, name, balance, created_at)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (name) DO NOTHING
	`, account.ID, account.Name, account.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return s.FindByName(ctx, account.Name)
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, balance, created_at FROM ledger_accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, balance, created_at FROM ledger_accounts WHERE name = $1`, name)
	return scanAccount(row)
}

// Transfer locks both rows in name order, so concurrent transfers between the
// same pair cannot deadlock.
func (s *PostgresStore) Transfer(ctx context.Context, from, to string, amount int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT name, balance FROM ledger_accounts
		WHERE name = ANY($1)
		ORDER BY name
		FOR UPDATE
	`, pq.Array([]string{from, to}))
	if err != nil {
		return fmt.Errorf("lock accounts: %w", err)
	}
	balances := make(map[string]int64, 2)
	for rows.Next() {
		var name string
		var balance int64
		if err := rows.Scan(&name, &balance); err != nil {
			rows.Close()
			return fmt.Errorf("scan account: %w", err)
		}
		balances[name] = balance
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close account rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate account rows: %w", err)
	}

	for _, name := range []string{from, to} {
		if _, ok := balances[name]; !ok {
			return fmt.Errorf("account %s: %w", name, sentinel.ErrNotFound)
		}
	}
	if balances[from] < amount {
		return fmt.Errorf("debit %s: %w", from, sentinel.ErrInsufficientFunds)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE ledger_accounts SET balance = balance - $1 WHERE name = $2`, amount, from); err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE ledger_accounts SET balance = balance + $1 WHERE name = $2`, amount, to); err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Credit(ctx context.Context, name string, amount int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ledger_accounts SET balance = balance + $1 WHERE name = $2`, amount, name)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	return requireOneRow(res, name)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func requireOneRow(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", name, sentinel.ErrNotFound)
	}
	return nil
}
