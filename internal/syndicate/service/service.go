// Package service implements one syndicate agent: it owns a dirty and a
// clean account, asks its oracle for a strategy each round and submits the
// laundering request to the laundromat. Once busted it never plays again.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"launder/internal/game"
	laundromatmodels "launder/internal/laundromat/models"
	ledgermodels "launder/internal/ledger/models"
	"launder/internal/syndicate/metrics"
	"launder/internal/syndicate/models"
	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/audit"
	"launder/pkg/requestcontext"
)

type Ledger interface {
	GetOrCreateAccount(ctx context.Context, name string) (*ledgermodels.AccountResponse, error)
	GetBalance(ctx context.Context, id uuid.UUID) (*ledgermodels.BalanceResponse, error)
	Transfer(ctx context.Context, from, to string, amount int64) error
	AwaitBalance(ctx context.Context, id uuid.UUID, cond func(balance int64) bool) (*ledgermodels.BalanceResponse, bool, error)
}

// Laundromat submits a paid laundering request.
type Laundromat interface {
	Launder(ctx context.Context, strategy game.Strategy, req laundromatmodels.LaunderRequest) (*game.LaunderOutcome, error)
}

type Decider interface {
	Decide(ctx context.Context, abstract string) (game.Strategy, error)
}

type Config struct {
	Name              string
	BossName          string
	StartingDirtyCash int64
	FundedAccount     string
}

type Agent struct {
	cfg        Config
	ledger     Ledger
	laundromat Laundromat
	decider    Decider
	auditor    audit.Emitter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer

	mu     sync.Mutex
	dirty  *ledgermodels.AccountResponse
	clean  *ledgermodels.AccountResponse
	busted bool
	// last known balances, used when the ledger cannot be read
	dirtyCash int64
	cleanCash int64
}

type Option func(*Agent)

func WithAuditor(a audit.Emitter) Option {
	return func(ag *Agent) { ag.auditor = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(ag *Agent) { ag.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(ag *Agent) { ag.logger = logger }
}

func WithTracer(t trace.Tracer) Option {
	return func(ag *Agent) { ag.tracer = t }
}

func New(cfg Config, ledger Ledger, laundromat Laundromat, decider Decider, opts ...Option) (*Agent, error) {
	if ledger == nil || laundromat == nil || decider == nil {
		return nil, fmt.Errorf("ledger, laundromat and decider are required")
	}
	if cfg.Name == "" || cfg.BossName == "" {
		return nil, fmt.Errorf("syndicate name and boss name are required")
	}
	if cfg.FundedAccount == "" {
		return nil, fmt.Errorf("funded account is required")
	}
	a := &Agent{
		cfg:        cfg,
		ledger:     ledger,
		laundromat: laundromat,
		decider:    decider,
		logger:     slog.Default(),
		tracer:     otel.Tracer("launder/syndicate"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Reset starts a fresh run: it provisions both accounts, sweeps clean cash
// back to the funded reserve, sets dirty cash to the starting amount and
// clears the busted flag.
func (a *Agent) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	dirty, err := a.ledger.GetOrCreateAccount(ctx, game.DirtyAccountName(a.cfg.Name))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeProvisionFailed, "failed to provision dirty account")
	}
	clean, err := a.ledger.GetOrCreateAccount(ctx, game.CleanAccountName(a.cfg.Name))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeProvisionFailed, "failed to provision clean account")
	}
	a.dirty, a.clean = dirty, clean

	cleanBal, err := a.ledger.GetBalance(ctx, clean.ID)
	if err != nil {
		return err
	}
	if cleanBal.Balance > 0 {
		if err := a.ledger.Transfer(ctx, clean.Name, a.cfg.FundedAccount, cleanBal.Balance); err != nil {
			return err
		}
	}

	dirtyBal, err := a.ledger.GetBalance(ctx, dirty.ID)
	if err != nil {
		return err
	}
	switch diff := a.cfg.StartingDirtyCash - dirtyBal.Balance; {
	case diff > 0:
		err = a.ledger.Transfer(ctx, a.cfg.FundedAccount, dirty.Name, diff)
	case diff < 0:
		err = a.ledger.Transfer(ctx, dirty.Name, a.cfg.FundedAccount, -diff)
	}
	if err != nil {
		return err
	}

	if last, ok, err := a.ledger.AwaitBalance(ctx, dirty.ID, func(b int64) bool { return b == a.cfg.StartingDirtyCash }); !ok {
		a.logger.WarnContext(ctx, "dirty funding not yet visible", "last", last, "error", err)
	}

	a.busted = false
	a.dirtyCash = a.cfg.StartingDirtyCash
	a.cleanCash = 0
	a.metrics.ObserveState(false, a.dirtyCash, 0)
	a.logger.InfoContext(ctx, "syndicate ready",
		"syndicate", a.cfg.Name,
		"boss", a.cfg.BossName,
		"dirty_cash", ledgermodels.FormatCash(a.dirtyCash),
	)
	return nil
}

// Profile is a pure read.
func (a *Agent) Profile() models.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := models.Profile{
		BossName:        a.cfg.BossName,
		SyndicateName:   a.cfg.Name,
		DirtyWalletName: game.DirtyAccountName(a.cfg.Name),
		CleanWalletName: game.CleanAccountName(a.cfg.Name),
		Busted:          a.busted,
	}
	if a.dirty != nil {
		p.DirtyWalletAddress = a.dirty.ID
	}
	if a.clean != nil {
		p.CleanWalletAddress = a.clean.ID
	}
	return p
}

func (a *Agent) Busted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busted
}

// TakeTurn plays one round. Failures of the laundromat call are reported in
// the result (Success=false, zero amounts) rather than returned.
func (a *Agent) TakeTurn(ctx context.Context, abstract string) (*models.TurnResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dirty == nil || a.clean == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "syndicate accounts are not provisioned")
	}

	if a.busted {
		a.metrics.IncrementTurn("", "skipped")
		return &models.TurnResult{
			DirtyBalance: a.dirtyCash,
			CleanBalance: a.cleanCash,
			Busted:       true,
		}, nil
	}

	ctx, span := a.tracer.Start(ctx, "syndicate.turn", trace.WithAttributes(attribute.String("syndicate", a.cfg.Name)))
	defer span.End()

	strategy := a.decide(ctx, abstract)
	span.SetAttributes(attribute.String("strategy", string(strategy)))

	// Nothing has moved yet, so a caller that gave up can still be refused.
	if err := ctx.Err(); err != nil {
		a.metrics.IncrementTurn(string(strategy), "abandoned")
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "turn abandoned before laundering")
	}
	// Once the paid call starts the turn runs to completion: the payment and
	// the threshold commit may already be settled when the caller disconnects.
	ctx = context.WithoutCancel(ctx)

	outcome, err := a.laundromat.Launder(ctx, strategy, laundromatmodels.LaunderRequest{
		BossName:         a.cfg.BossName,
		Name:             a.cfg.Name,
		CleanAccountName: a.clean.Name,
	})
	if err != nil {
		span.RecordError(err)
		a.logger.ErrorContext(ctx, "laundering call failed",
			"request_id", requestcontext.RequestID(ctx),
			"syndicate", a.cfg.Name,
			"strategy", strategy,
			"error", err,
		)
		a.metrics.IncrementTurn(string(strategy), "failed")
		a.audit(ctx, audit.Event{Action: string(audit.EventTurnFailed), Strategy: string(strategy), Reason: string(dErrors.CodeOf(err))})
		failed := game.FailedOutcome(strategy)
		result := a.observe(ctx, failed)
		return &result, nil
	}

	if outcome.Busted {
		a.busted = true
		a.logger.WarnContext(ctx, "syndicate busted", "syndicate", a.cfg.Name, "strategy", strategy)
		a.metrics.IncrementTurn(string(strategy), "busted")
	} else {
		a.metrics.IncrementTurn(string(strategy), "ok")
	}
	if profile, err := game.ProfileFor(strategy); err == nil {
		a.dirtyCash -= profile.Amount
	}
	a.cleanCash += outcome.AmountClean

	result := a.observe(ctx, *outcome)
	span.SetAttributes(attribute.Bool("busted", result.Busted), attribute.Bool("success", result.Success))
	return &result, nil
}

// decide never returns an invalid strategy: anything the oracle gets wrong
// becomes the safest strategy.
func (a *Agent) decide(ctx context.Context, abstract string) game.Strategy {
	strategy, err := a.decider.Decide(ctx, abstract)
	if err == nil {
		if _, perr := game.ProfileFor(strategy); perr != nil {
			err = perr
		}
	}
	if err != nil {
		a.metrics.IncrementOracleFallback()
		a.logger.WarnContext(ctx, "oracle output unusable, playing safe",
			"syndicate", a.cfg.Name,
			"fallback", game.SafestStrategy,
			"error", err,
		)
		strategy = game.SafestStrategy
	}
	a.audit(ctx, audit.Event{Action: string(audit.EventDecisionMade), Strategy: string(strategy)})
	return strategy
}

// observe reads both balances, best effort, and falls back to the last
// known values when the ledger cannot be read.
func (a *Agent) observe(ctx context.Context, out game.LaunderOutcome) models.TurnResult {
	if bal, err := a.ledger.GetBalance(ctx, a.dirty.ID); err == nil {
		a.dirtyCash = bal.Balance
	} else {
		a.logger.WarnContext(ctx, "dirty balance unavailable", "syndicate", a.cfg.Name, "error", err)
	}

	expected := a.cleanCash
	if bal, ok, err := a.ledger.AwaitBalance(ctx, a.clean.ID, func(b int64) bool { return b >= expected }); bal != nil {
		a.cleanCash = bal.Balance
		if !ok {
			a.logger.WarnContext(ctx, "clean balance not yet settled", "syndicate", a.cfg.Name, "error", err)
		}
	}

	a.metrics.ObserveState(a.busted, a.dirtyCash, a.cleanCash)
	return models.TurnResult{
		Strategy:     out.Strategy,
		AmountClean:  out.AmountClean,
		AmountLost:   out.AmountLost,
		DirtyBalance: a.dirtyCash,
		CleanBalance: a.cleanCash,
		Busted:       a.busted,
		Success:      out.Success,
	}
}

func (a *Agent) audit(ctx context.Context, event audit.Event) {
	if a.auditor == nil {
		return
	}
	event.Subject = a.cfg.Name
	event.RequestID = requestcontext.RequestID(ctx)
	if err := a.auditor.Emit(ctx, event); err != nil {
		a.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
