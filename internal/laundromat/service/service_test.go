package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"launder/internal/game"
	"launder/internal/laundromat/metrics"
	"launder/internal/laundromat/models"
	"launder/internal/laundromat/service/mocks"
	"launder/internal/laundromat/store/roundtotal"
	ledgermodels "launder/internal/ledger/models"
	"launder/internal/platform/logger"
	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/audit"
	"launder/pkg/platform/audit/publisher"
	"launder/pkg/platform/audit/store/memory"
)

// =============================================================================
// Clearing Engine Test Suite
// =============================================================================
// Justification for unit tests: the threshold and tax rules decide who gets
// busted; they are checked here against a mocked ledger so every transfer
// the engine issues is asserted exactly.

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	ledger  *mocks.MockLedger
	round   *roundtotal.InMemoryStore
	events  *memory.InMemoryStore
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ledger = mocks.NewMockLedger(s.ctrl)
	s.round = roundtotal.NewInMemory()
	s.events = memory.NewInMemoryStore()

	svc, err := New(s.config(), s.ledger, s.round,
		WithLogger(logger.Discard()),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
		WithAuditor(publisher.NewPublisher(s.events)),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) config() Config {
	return Config{
		Threshold:         45_000,
		FundedAccount:     game.FundedAccountName,
		AuthorityAccount:  game.AuthorityAccountName,
		ReceivableAccount: "LaundromatReceivable",
	}
}

func request(syndicate string) models.LaunderRequest {
	return models.LaunderRequest{
		BossName:         "Boss of " + syndicate,
		Name:             syndicate,
		CleanAccountName: game.CleanAccountName(syndicate),
	}
}

func (s *ServiceSuite) expectPayout(to string, amount int64) {
	s.ledger.EXPECT().Transfer(gomock.Any(), game.FundedAccountName, to, amount).Return(nil)
}

func (s *ServiceSuite) TestThresholdScenario() {
	ctx := context.Background()

	s.expectPayout("Syndicate1-clean", 25_000)
	s.expectPayout("Syndicate2-clean", 10_000)
	s.expectPayout("Syndicate3-clean", 5_000)
	s.expectPayout(game.AuthorityAccountName, 25_000)

	steps := []struct {
		syndicate string
		strategy  game.Strategy
		clean     int64
		lost      int64
		busted    bool
	}{
		{"Syndicate1", game.StrategyAggressive, 25_000, 0, false},
		{"Syndicate2", game.StrategyModerate, 10_000, 0, false},
		{"Syndicate3", game.StrategyConservative, 5_000, 0, false},
		{"Syndicate4", game.StrategyAggressive, 0, 25_000, true},
	}
	for _, step := range steps {
		out, err := s.service.Clear(ctx, step.strategy, request(step.syndicate))
		s.Require().NoError(err)
		s.Equal(step.clean, out.AmountClean, step.syndicate)
		s.Equal(step.lost, out.AmountLost, step.syndicate)
		s.Equal(step.busted, out.Busted, step.syndicate)
		s.True(out.Success)
	}

	total, err := s.round.Total(ctx)
	s.Require().NoError(err)
	s.Equal(int64(40_000), total, "busted amount is not counted")

	s.Run("taxes are paid regardless of the running total", func() {
		s.expectPayout("Syndicate5-clean", 12_000)
		s.expectPayout(game.AuthorityAccountName, 8_000)

		out, err := s.service.Clear(ctx, game.StrategyPlayNice, request("Syndicate5"))
		s.Require().NoError(err)
		s.Equal(game.LaunderOutcome{Strategy: game.StrategyPlayNice, AmountClean: 12_000, AmountLost: 8_000, Success: true}, *out)

		total, _ := s.round.Total(ctx)
		s.Equal(int64(40_000), total, "tax path never touches the threshold")
	})

	s.Run("audit trail", func() {
		busted, _ := s.events.ListBySubject(ctx, "Syndicate4")
		s.Require().Len(busted, 1)
		s.Equal(string(audit.EventSyndicateBusted), busted[0].Action)
		s.Equal(int64(25_000), busted[0].Lost)

		taxed, _ := s.events.ListBySubject(ctx, "Syndicate5")
		s.Require().Len(taxed, 1)
		s.Equal(string(audit.EventTaxesPaid), taxed[0].Action)
	})
}

func (s *ServiceSuite) TestNarrateIsTheRoundBoundary() {
	ctx := context.Background()
	narrator := mocks.NewMockNarrator(s.ctrl)
	s.service.narrator = narrator

	s.ledger.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	narrator.EXPECT().Narrate(gomock.Any(), 1, gomock.Nil()).Return("opening", nil)
	abstract, err := s.service.Narrate(ctx)
	s.Require().NoError(err)
	s.Equal("opening", abstract)

	_, err = s.service.Clear(ctx, game.StrategyAggressive, request("Syndicate1"))
	s.Require().NoError(err)
	out, err := s.service.Clear(ctx, game.StrategyAggressive, request("Syndicate2"))
	s.Require().NoError(err)
	s.True(out.Busted)

	narrator.EXPECT().Narrate(gomock.Any(), 2, []models.Record{
		{Syndicate: "Syndicate1", BossName: "Boss of Syndicate1", Strategy: game.StrategyAggressive},
		{Syndicate: "Syndicate2", BossName: "Boss of Syndicate2", Strategy: game.StrategyAggressive, Busted: true},
	}).Return("heat", nil)
	abstract, err = s.service.Narrate(ctx)
	s.Require().NoError(err)
	s.Equal("heat", abstract)

	total, _ := s.round.Total(ctx)
	s.Zero(total)

	out, err = s.service.Clear(ctx, game.StrategyAggressive, request("Syndicate3"))
	s.Require().NoError(err)
	s.False(out.Busted, "a new round starts from zero")
}

func (s *ServiceSuite) TestPayoutFailureKeepsDecision() {
	s.ledger.EXPECT().Transfer(gomock.Any(), game.FundedAccountName, "Syndicate1-clean", int64(12_000)).
		Return(dErrors.New(dErrors.CodeLedgerUnavailable, "ledger down"))
	s.ledger.EXPECT().Transfer(gomock.Any(), game.FundedAccountName, game.AuthorityAccountName, int64(8_000)).Return(nil)

	out, err := s.service.Clear(context.Background(), game.StrategyPlayNice, request("Syndicate1"))
	s.Require().NoError(err)
	s.False(out.Success)
	s.Equal(int64(12_000), out.AmountClean)
	s.Equal(int64(8_000), out.AmountLost)
}

func (s *ServiceSuite) TestRoundUnavailable() {
	round := mocks.NewMockRoundStore(s.ctrl)
	svc, err := New(s.config(), s.ledger, round, WithLogger(logger.Discard()))
	s.Require().NoError(err)

	s.Run("commit", func() {
		round.EXPECT().Commit(gomock.Any(), gomock.Any(), int64(10_000), int64(45_000)).Return(int64(0), false, errors.New("redis down"))
		_, err := svc.Clear(context.Background(), game.StrategyModerate, request("Syndicate1"))
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("taxed record", func() {
		round.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
		_, err := svc.Clear(context.Background(), game.StrategyPlayNice, request("Syndicate1"))
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("close", func() {
		round.EXPECT().Close(gomock.Any()).Return(0, nil, errors.New("redis down"))
		_, err := svc.Narrate(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *ServiceSuite) TestReplicasNarrateTheSharedRound() {
	ctx := context.Background()
	s.ledger.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	other, err := New(s.config(), s.ledger, s.round, WithLogger(logger.Discard()))
	s.Require().NoError(err)
	narrator := mocks.NewMockNarrator(s.ctrl)
	other.narrator = narrator

	_, err = s.service.Clear(ctx, game.StrategyAggressive, request("Syndicate1"))
	s.Require().NoError(err)
	_, err = other.Clear(ctx, game.StrategyPlayNice, request("Syndicate2"))
	s.Require().NoError(err)
	out, err := other.Clear(ctx, game.StrategyAggressive, request("Syndicate3"))
	s.Require().NoError(err)
	s.False(out.Busted)

	narrator.EXPECT().Narrate(gomock.Any(), 1, []models.Record{
		{Syndicate: "Syndicate1", BossName: "Boss of Syndicate1", Strategy: game.StrategyAggressive},
		{Syndicate: "Syndicate2", BossName: "Boss of Syndicate2", Strategy: game.StrategyPlayNice, Taxed: true},
		{Syndicate: "Syndicate3", BossName: "Boss of Syndicate3", Strategy: game.StrategyAggressive},
	}).Return("busy night", nil)
	abstract, err := other.Narrate(ctx)
	s.Require().NoError(err)
	s.Equal("busy night", abstract)

	out, err = s.service.Clear(ctx, game.StrategyAggressive, request("Syndicate4"))
	s.Require().NoError(err)
	s.False(out.Busted, "the close on one replica resets the total for all")
}

func (s *ServiceSuite) TestUnknownStrategy() {
	_, err := s.service.Clear(context.Background(), game.Strategy("smurfing"), request("Syndicate1"))
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownStrategy))
}

func (s *ServiceSuite) TestConcurrentClearsNeverOvershoot() {
	ctx := context.Background()
	s.ledger.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var clean int64
	for i := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.service.Clear(ctx, game.StrategyModerate, request(game.SyndicateName(i+1)))
			s.NoError(err)
			mu.Lock()
			clean += out.AmountClean
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Equal(int64(40_000), clean)
}

func (s *ServiceSuite) TestPrepare() {
	ctx := context.Background()
	authorityID := uuid.New()

	s.Run("empties the authority account", func() {
		s.ledger.EXPECT().GetOrCreateAccount(gomock.Any(), game.FundedAccountName).
			Return(&ledgermodels.AccountResponse{ID: uuid.New(), Name: game.FundedAccountName}, nil)
		s.ledger.EXPECT().GetOrCreateAccount(gomock.Any(), game.AuthorityAccountName).
			Return(&ledgermodels.AccountResponse{ID: authorityID, Name: game.AuthorityAccountName}, nil)
		s.ledger.EXPECT().GetOrCreateAccount(gomock.Any(), "LaundromatReceivable").
			Return(&ledgermodels.AccountResponse{ID: uuid.New(), Name: "LaundromatReceivable"}, nil)
		s.ledger.EXPECT().GetBalance(gomock.Any(), authorityID).
			Return(&ledgermodels.BalanceResponse{Account: authorityID, Balance: 33_000}, nil)
		s.ledger.EXPECT().Transfer(gomock.Any(), game.AuthorityAccountName, game.FundedAccountName, int64(33_000)).Return(nil)
		s.ledger.EXPECT().AwaitBalance(gomock.Any(), authorityID, gomock.Any()).
			Return(&ledgermodels.BalanceResponse{Account: authorityID}, true, nil)

		s.NoError(s.service.Prepare(ctx))
	})

	s.Run("provisioning failure is fatal", func() {
		s.ledger.EXPECT().GetOrCreateAccount(gomock.Any(), game.FundedAccountName).
			Return(nil, dErrors.New(dErrors.CodeLedgerUnavailable, "down"))

		err := s.service.Prepare(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeProvisionFailed))
	})
}

func (s *ServiceSuite) TestNew_RequiresDependencies() {
	_, err := New(s.config(), nil, s.round)
	s.Error(err)

	cfg := s.config()
	cfg.Threshold = 0
	_, err = New(cfg, s.ledger, s.round)
	s.Error(err)
}
