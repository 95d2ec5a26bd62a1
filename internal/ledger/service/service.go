// Package service implements the custodial ledger that every agent settles against.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"launder/internal/ledger/metrics"
	"launder/internal/ledger/models"
	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/sentinel"
	"launder/pkg/requestcontext"
)

// AccountStore persists accounts and applies balance changes atomically.
type AccountStore interface {
	GetOrCreate(ctx context.Context, account *models.Account) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByName(ctx context.Context, name string) (*models.Account, error)
	Transfer(ctx context.Context, from, to string, amount int64) error
	Credit(ctx context.Context, name string, amount int64) error
}

// Service owns account provisioning and fund movement.
type Service struct {
	accounts AccountStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(accounts AccountStore, opts ...Option) (*Service, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	s := &Service{accounts: accounts, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetOrCreateAccount is idempotent on name.
func (s *Service) GetOrCreateAccount(ctx context.Context, name string) (*models.Account, error) {
	candidate, err := models.NewAccount(uuid.New(), name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProvisionFailed, "failed to provision account")
	}
	s.metrics.IncrementProvisioned()
	return account, nil
}

// Account returns the current state of an account, balance included.
func (s *Service) Account(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

// Transfer moves amount between two named accounts. A zero amount is a no-op.
func (s *Service) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}
	if amount == 0 {
		return nil
	}
	err := s.accounts.Transfer(ctx, from, to, amount)
	switch {
	case err == nil:
		s.metrics.IncrementTransfer("ok", amount)
		s.logger.InfoContext(ctx, "transfer settled",
			"request_id", requestcontext.RequestID(ctx),
			"from", from,
			"to", to,
			"amount", amount,
		)
		return nil
	case errors.Is(err, sentinel.ErrInsufficientFunds):
		s.metrics.IncrementTransfer("insufficient_funds", amount)
		return dErrors.Wrap(err, dErrors.CodeInsufficientFunds, "insufficient funds")
	case errors.Is(err, sentinel.ErrNotFound):
		s.metrics.IncrementTransfer("not_found", amount)
		return dErrors.Wrap(err, dErrors.CodeNotFound, "account not found")
	default:
		s.metrics.IncrementTransfer("error", amount)
		return dErrors.Wrap(err, dErrors.CodeTransferFailed, "transfer failed")
	}
}

// Mint credits new units to an existing account.
func (s *Service) Mint(ctx context.Context, name string, amount int64) error {
	if amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if err := s.accounts.Credit(ctx, name, amount); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint")
	}
	s.logger.InfoContext(ctx, "units minted", "account", name, "amount", amount)
	return nil
}

// Bootstrap provisions the funded reserve and mints supply into it when it is empty.
func (s *Service) Bootstrap(ctx context.Context, fundedName string, supply int64) (*models.Account, error) {
	funded, err := s.GetOrCreateAccount(ctx, fundedName)
	if err != nil {
		return nil, err
	}
	if funded.Balance > 0 || supply <= 0 {
		return funded, nil
	}
	if err := s.Mint(ctx, fundedName, supply); err != nil {
		return nil, err
	}
	return s.Account(ctx, funded.ID)
}
