package account

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"launder/internal/ledger/models"
	"launder/pkg/platform/sentinel"
)

// SQLiteStore persists accounts in a single SQLite file. Writes are
// serialized in process; SQLite has one writer anyway.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens (or creates) the database and runs migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS ledger_accounts (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at INTEGER NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetOrCreate(ctx context.Context, account *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO ledger_accounts (id, name, balance, created_at) VALUES (?, ?, 0, ?)`,
		account.ID.String(), account.Name, account.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return s.FindByName(ctx, account.Name)
}

func (s *SQLiteStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, balance, created_at FROM ledger_accounts WHERE id = ?`, id.String())
	return scanSQLiteAccount(row)
}

func (s *SQLiteStore) FindByName(ctx context.Context, name string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, balance, created_at FROM ledger_accounts WHERE name = ?`, name)
	return scanSQLiteAccount(row)
}

func (s *SQLiteStore) Transfer(ctx context.Context, from, to string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var balance int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM ledger_accounts WHERE name = ?`, from).Scan(&balance); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("account %s: %w", from, sentinel.ErrNotFound)
		}
		return fmt.Errorf("load source: %w", err)
	}
	if balance < amount {
		return fmt.Errorf("debit %s: %w", from, sentinel.ErrInsufficientFunds)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE ledger_accounts SET balance = balance + ? WHERE name = ?`, amount, to)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	if err := requireOneRow(res, to); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE ledger_accounts SET balance = balance - ? WHERE name = ?`, amount, from); err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Credit(ctx context.Context, name string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE ledger_accounts SET balance = balance + ? WHERE name = ?`, amount, name)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	return requireOneRow(res, name)
}

func scanSQLiteAccount(row rowScanner) (*models.Account, error) {
	var (
		a         models.Account
		rawID     string
		createdMs int64
	)
	if err := row.Scan(&rawID, &a.Name, &a.Balance, &createdMs); err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse account id: %w", err)
	}
	a.ID = id
	a.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &a, nil
}
