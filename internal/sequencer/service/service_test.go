package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"launder/internal/game"
	ledgermodels "launder/internal/ledger/models"
	"launder/internal/platform/logger"
	"launder/internal/sequencer/metrics"
	"launder/internal/sequencer/models"
	"launder/internal/sequencer/service/mocks"
	"launder/internal/sequencer/store/activitylog"
	syndicatemodels "launder/internal/syndicate/models"
	dErrors "launder/pkg/domain-errors"
)

// fakeSyndicate plays a fixed script of turn results; the last one repeats.
type fakeSyndicate struct {
	mu         sync.Mutex
	name       string
	dirty      uuid.UUID
	clean      uuid.UUID
	script     []syndicatemodels.TurnResult
	busted     bool
	profileErr error
	launderErr error
	abstracts  []string
	onLaunder  func(name string)
}

func newFake(name string, script ...syndicatemodels.TurnResult) *fakeSyndicate {
	return &fakeSyndicate{name: name, dirty: uuid.New(), clean: uuid.New(), script: script}
}

func (f *fakeSyndicate) Profile(context.Context) (*syndicatemodels.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &syndicatemodels.Profile{
		SyndicateName:      f.name,
		DirtyWalletAddress: f.dirty,
		CleanWalletAddress: f.clean,
		Busted:             f.busted,
	}, nil
}

func (f *fakeSyndicate) Launder(_ context.Context, abstract string) (*syndicatemodels.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abstracts = append(f.abstracts, abstract)
	if f.onLaunder != nil {
		f.onLaunder(f.name)
	}
	if f.launderErr != nil {
		return nil, f.launderErr
	}
	r := f.script[min(len(f.abstracts), len(f.script))-1]
	if r.Busted {
		f.busted = true
	}
	return &r, nil
}

func (f *fakeSyndicate) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.abstracts)
}

func moderate(dirty, clean int64) syndicatemodels.TurnResult {
	return syndicatemodels.TurnResult{Strategy: game.StrategyModerate, AmountClean: 10_000, DirtyBalance: dirty, CleanBalance: clean, Success: true}
}

var bust = syndicatemodels.TurnResult{Strategy: game.StrategyAggressive, AmountLost: 25_000, DirtyBalance: 75_000, Busted: true, Success: true}

// =============================================================================
// Sequencer Test Suite
// =============================================================================
// Justification for unit tests: round ordering, skipping busted syndicates,
// failure isolation and resume all live in the orchestration loop and are
// checked here against fake agents and the in-memory log store.

type SequencerSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	laundromat *mocks.MockLaundromat
	ledger     *mocks.MockLedger
	store      *activitylog.InMemoryStore
	authority  uuid.UUID
	balances   map[uuid.UUID]int64
	abstracts  int
}

func TestSequencerSuite(t *testing.T) {
	suite.Run(t, new(SequencerSuite))
}

func (s *SequencerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.laundromat = mocks.NewMockLaundromat(s.ctrl)
	s.ledger = mocks.NewMockLedger(s.ctrl)
	s.store = activitylog.NewInMemoryStore()
	s.authority = uuid.New()
	s.balances = map[uuid.UUID]int64{s.authority: 25_000}
	s.abstracts = 0

	s.laundromat.EXPECT().Abstract(gomock.Any()).DoAndReturn(func(context.Context) (string, error) {
		s.abstracts++
		return fmt.Sprintf("abstract %d", s.abstracts), nil
	}).AnyTimes()
	s.ledger.EXPECT().GetOrCreateAccount(gomock.Any(), game.AuthorityAccountName).
		Return(&ledgermodels.AccountResponse{ID: s.authority, Name: game.AuthorityAccountName}, nil).AnyTimes()
}

func (s *SequencerSuite) expectBalances() {
	var mu sync.Mutex
	s.ledger.EXPECT().GetBalance(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id uuid.UUID) (*ledgermodels.BalanceResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		bal, ok := s.balances[id]
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return &ledgermodels.BalanceResponse{Account: id, Balance: bal}, nil
	}).AnyTimes()
}

func (s *SequencerSuite) newSequencer(days int, players []Player, opts ...Option) *Sequencer {
	opts = append([]Option{
		WithLogger(logger.Discard()),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}, opts...)
	seq, err := New(Config{Days: days, AuthorityAccount: game.AuthorityAccountName}, s.laundromat, players, s.ledger, s.store, opts...)
	s.Require().NoError(err)
	return seq
}

func players(fakes ...*fakeSyndicate) []Player {
	out := make([]Player, len(fakes))
	for i, f := range fakes {
		out[i] = Player{Name: f.name, Agent: f}
	}
	return out
}

func (s *SequencerSuite) TestFullRun() {
	s.expectBalances()
	a := newFake("Syndicate1", moderate(90_000, 10_000), moderate(80_000, 20_000), moderate(70_000, 30_000))
	b := newFake("Syndicate2", bust)
	c := newFake("Syndicate3", moderate(90_000, 10_000), moderate(80_000, 20_000), moderate(70_000, 30_000))
	s.balances[a.dirty], s.balances[a.clean] = 70_000, 30_000
	s.balances[b.dirty], s.balances[b.clean] = 75_000, 0
	s.balances[c.dirty], s.balances[c.clean] = 70_000, 30_000

	report, err := s.newSequencer(3, players(a, b, c)).Run(context.Background(), false)
	s.Require().NoError(err)

	s.Equal([]string{"abstract 1", "abstract 2", "abstract 3"}, a.calls())
	s.Equal([]string{"abstract 1"}, b.calls(), "a busted syndicate never plays again")

	log, err := s.store.Load(context.Background())
	s.Require().NoError(err)
	s.Equal(3, log.CurrentDay)
	s.Equal(int64(25_000), log.AuthorityBalance)
	s.Require().Len(log.Days, 3)
	s.Equal("abstract 2", log.Days[1].Abstract)
	s.Len(log.Days[0].Syndicates, 3)
	s.Len(log.Days[1].Syndicates, 2)
	s.NotContains(log.Days[2].Syndicates, "Syndicate2")
	s.Equal(7, log.Outcomes())

	s.Equal(7, report.Outcomes)
	s.Equal(int64(25_000), report.Authority)
	s.Require().Len(report.Syndicates, 3)
	s.Equal(models.Balances{Syndicate: "Syndicate2", DirtyAddress: b.dirty, CleanAddress: b.clean, Dirty: 75_000, Busted: true}, report.Syndicates[1])
	s.Equal(int64(30_000), report.Syndicates[0].Clean)
}

func (s *SequencerSuite) TestLogIsSavedAfterEveryTurn() {
	s.expectBalances()
	a := newFake("Syndicate1", moderate(90_000, 10_000))
	b := newFake("Syndicate2", moderate(90_000, 10_000))

	// Each launder call sees every earlier turn already persisted.
	seen := 0
	check := func(string) {
		log, err := s.store.Load(context.Background())
		s.Require().NoError(err)
		s.Equal(seen, log.Outcomes())
		s.NotEmpty(log.Day(log.CurrentDay).Abstract, "abstract is persisted before any turn")
		seen++
	}
	a.onLaunder, b.onLaunder = check, check

	_, err := s.newSequencer(2, players(a, b)).Run(context.Background(), false)
	s.Require().NoError(err)
	s.Equal(4, seen)
}

func (s *SequencerSuite) TestTurnOrderIsShuffledPerDay() {
	s.expectBalances()
	var fakes []*fakeSyndicate
	for i := 1; i <= 5; i++ {
		fakes = append(fakes, newFake(game.SyndicateName(i), moderate(90_000, 10_000)))
	}
	var order []string
	for _, f := range fakes {
		f.onLaunder = func(name string) { order = append(order, name) }
	}

	_, err := s.newSequencer(3, players(fakes...)).Run(context.Background(), false)
	s.Require().NoError(err)

	r := rand.New(rand.NewPCG(1, 2))
	var want []string
	for range 3 {
		names := []string{"Syndicate1", "Syndicate2", "Syndicate3", "Syndicate4", "Syndicate5"}
		r.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
		want = append(want, names...)
	}
	s.Equal(want, order)
}

func (s *SequencerSuite) TestFailedTurnsAreRecordedAndTheRoundContinues() {
	s.expectBalances()
	down := newFake("Syndicate1", moderate(90_000, 10_000), moderate(80_000, 20_000))
	unreachable := newFake("Syndicate2", moderate(90_000, 10_000))
	unreachable.profileErr = dErrors.New(dErrors.CodeRemoteCallFailed, "connection refused")
	ok := newFake("Syndicate3", moderate(90_000, 10_000), moderate(80_000, 20_000))

	seq := s.newSequencer(2, players(down, unreachable, ok))

	down.onLaunder = func(string) {
		if len(down.abstracts) == 2 {
			down.launderErr = errors.New("payment failed")
		}
	}
	report, err := seq.Run(context.Background(), false)
	s.Require().NoError(err)

	log, _ := s.store.Load(context.Background())
	s.Equal(syndicatemodels.TurnResult{DirtyBalance: 90_000, CleanBalance: 10_000}, log.Days[1].Syndicates["Syndicate1"],
		"failure keeps the last known balances and success=false")
	s.False(log.Days[0].Syndicates["Syndicate2"].Success)
	s.True(log.Days[1].Syndicates["Syndicate3"].Success)
	s.Equal(6, log.Outcomes())

	s.Contains(report.Syndicates[1].Err, "profile")
}

func (s *SequencerSuite) TestAbstractFailureIsFatal() {
	ctrl := gomock.NewController(s.T())
	laundromat := mocks.NewMockLaundromat(ctrl)
	gomock.InOrder(
		laundromat.EXPECT().Abstract(gomock.Any()).Return("a calm day", nil),
		laundromat.EXPECT().Abstract(gomock.Any()).Return("", dErrors.New(dErrors.CodeTimeout, "laundromat timed out")),
	)
	s.expectBalances()
	a := newFake("Syndicate1", moderate(90_000, 10_000))

	seq, err := New(Config{Days: 3, AuthorityAccount: game.AuthorityAccountName}, laundromat, players(a), s.ledger, s.store,
		WithLogger(logger.Discard()))
	s.Require().NoError(err)

	_, err = seq.Run(context.Background(), false)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	s.Len(a.calls(), 1, "no syndicate acts without the day's abstract")

	log, _ := s.store.Load(context.Background())
	s.Equal(2, log.CurrentDay)
	s.Empty(log.Day(2).Abstract)
	s.Empty(log.Day(2).Syndicates)
}

func (s *SequencerSuite) TestResume() {
	s.expectBalances()
	a := newFake("Syndicate1", moderate(80_000, 20_000), moderate(70_000, 30_000))
	b := newFake("Syndicate2", moderate(80_000, 20_000), moderate(70_000, 30_000))
	c := newFake("Syndicate3", moderate(90_000, 10_000))

	// Interrupted during day 2: Syndicate1 had played, the others had not.
	// Syndicate3 was busted on day 1 and has since restarted with a clean flag.
	prior := models.NewActivityLog()
	d1 := prior.StartDay(1)
	d1.Abstract = "first"
	d1.Syndicates["Syndicate1"] = moderate(90_000, 10_000)
	d1.Syndicates["Syndicate2"] = moderate(90_000, 10_000)
	d1.Syndicates["Syndicate3"] = bust
	d2 := prior.StartDay(2)
	d2.Abstract = "second"
	d2.Syndicates["Syndicate1"] = moderate(80_000, 20_000)
	s.Require().NoError(s.store.Save(context.Background(), prior))

	_, err := s.newSequencer(3, players(a, b, c)).Run(context.Background(), true)
	s.Require().NoError(err)

	s.Equal(1, s.abstracts, "day 2 keeps its abstract; only day 3 asks for one")
	s.Equal([]string{"abstract 1"}, a.calls())
	s.Equal([]string{"second", "abstract 1"}, b.calls())
	s.Empty(c.calls())

	log, _ := s.store.Load(context.Background())
	s.Equal(3+2+2, log.Outcomes())
	s.Equal("first", log.Day(1).Abstract)
}

func (s *SequencerSuite) TestSaveFailureStopsTheRun() {
	store := mocks.NewMockLogStore(s.ctrl)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	a := newFake("Syndicate1", moderate(90_000, 10_000))

	seq, err := New(Config{Days: 1, AuthorityAccount: game.AuthorityAccountName}, s.laundromat, players(a), s.ledger, store,
		WithLogger(logger.Discard()))
	s.Require().NoError(err)

	_, err = seq.Run(context.Background(), false)
	s.ErrorContains(err, "disk full")
	s.Empty(a.calls())
}

func (s *SequencerSuite) TestReportFallsBackToLoggedBalances() {
	s.ledger.EXPECT().GetBalance(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeLedgerUnavailable, "ledger down")).AnyTimes()
	a := newFake("Syndicate1", moderate(90_000, 10_000))

	log := models.NewActivityLog()
	log.AuthorityBalance = 8_000
	log.StartDay(1).Syndicates["Syndicate1"] = moderate(90_000, 10_000)

	report := s.newSequencer(1, players(a)).Report(context.Background(), log)
	s.Equal(int64(90_000), report.Syndicates[0].Dirty)
	s.Equal(int64(10_000), report.Syndicates[0].Clean)
	s.Contains(report.Syndicates[0].Err, "ledger down")
	s.Equal(int64(8_000), report.Authority)
	s.NotEmpty(report.AuthorityErr)
}

func (s *SequencerSuite) TestClean() {
	s.Require().NoError(s.store.Save(context.Background(), &models.ActivityLog{CurrentDay: 2, Days: []*models.Day{{Day: 1}}}))
	s.Require().NoError(s.newSequencer(1, players(newFake("Syndicate1", bust))).Clean(context.Background()))

	log, _ := s.store.Load(context.Background())
	s.Equal(models.NewActivityLog(), log)
}

func (s *SequencerSuite) TestNewValidation() {
	a := newFake("Syndicate1", bust)
	cfg := Config{Days: 1, AuthorityAccount: game.AuthorityAccountName}

	_, err := New(cfg, nil, players(a), s.ledger, s.store)
	s.Error(err)
	_, err = New(cfg, s.laundromat, nil, s.ledger, s.store)
	s.Error(err)
	_, err = New(cfg, s.laundromat, players(a, a), s.ledger, s.store)
	s.ErrorContains(err, "duplicate")
	_, err = New(Config{AuthorityAccount: "x"}, s.laundromat, players(a), s.ledger, s.store)
	s.Error(err)
}
