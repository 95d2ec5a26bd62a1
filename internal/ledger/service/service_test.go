package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"launder/internal/ledger/metrics"
	"launder/internal/ledger/store/account"
	"launder/internal/platform/logger"
	dErrors "launder/pkg/domain-errors"
)

// =============================================================================
// Ledger Service Test Suite
// =============================================================================
// Justification for unit tests: error translation from store sentinels to
// ledger codes and the zero-amount short circuit are contract details every
// other agent depends on.

type LedgerServiceSuite struct {
	suite.Suite
	store   *account.InMemoryStore
	metrics *metrics.Metrics
	service *Service
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.store = account.NewInMemory()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	var err error
	s.service, err = New(s.store, WithLogger(logger.Discard()), WithMetrics(s.metrics))
	s.Require().NoError(err)
}

func (s *LedgerServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.ErrorContains(err, "account store is required")
	})
}

func (s *LedgerServiceSuite) TestGetOrCreateAccount() {
	ctx := context.Background()

	s.Run("idempotent on name", func() {
		first, err := s.service.GetOrCreateAccount(ctx, "Syndicate3-clean")
		s.Require().NoError(err)
		second, err := s.service.GetOrCreateAccount(ctx, "Syndicate3-clean")
		s.Require().NoError(err)
		s.Equal(first.ID, second.ID)
	})

	s.Run("invalid name is a validation error", func() {
		_, err := s.service.GetOrCreateAccount(ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *LedgerServiceSuite) TestTransfer() {
	ctx := context.Background()
	_, err := s.service.Bootstrap(ctx, "FundedAccount", 100_000)
	s.Require().NoError(err)
	dst, err := s.service.GetOrCreateAccount(ctx, "AuthorityAccount")
	s.Require().NoError(err)

	s.Run("zero amount never reaches the store", func() {
		s.NoError(s.service.Transfer(ctx, "FundedAccount", "Missing", 0))
		s.Equal(float64(0), testutil.ToFloat64(s.metrics.Transfers.WithLabelValues("not_found")))
	})

	s.Run("negative amount rejected", func() {
		err := s.service.Transfer(ctx, "FundedAccount", "AuthorityAccount", -5)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("settles and counts", func() {
		s.Require().NoError(s.service.Transfer(ctx, "FundedAccount", "AuthorityAccount", 8_000))
		got, err := s.service.Account(ctx, dst.ID)
		s.Require().NoError(err)
		s.Equal(int64(8_000), got.Balance)
		s.Equal(float64(8_000), testutil.ToFloat64(s.metrics.TransferredUnit))
	})

	s.Run("insufficient funds maps to its code", func() {
		err := s.service.Transfer(ctx, "AuthorityAccount", "FundedAccount", 1_000_000)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})

	s.Run("unknown account maps to not found", func() {
		err := s.service.Transfer(ctx, "FundedAccount", "Nobody", 1)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LedgerServiceSuite) TestBootstrap() {
	ctx := context.Background()

	funded, err := s.service.Bootstrap(ctx, "FundedAccount", 500)
	s.Require().NoError(err)
	s.Equal(int64(500), funded.Balance)

	again, err := s.service.Bootstrap(ctx, "FundedAccount", 500)
	s.Require().NoError(err)
	s.Equal(int64(500), again.Balance, "non-empty reserve is not topped up")
}

func (s *LedgerServiceSuite) TestAccount_NotFound() {
	_, err := s.service.Account(context.Background(), uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
