// Package service implements the clearing engine: it prices each laundering
// request, enforces the per-round threshold, pays out clean and seized
// funds and narrates the round.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"launder/internal/game"
	"launder/internal/laundromat/metrics"
	"launder/internal/laundromat/models"
	"launder/internal/laundromat/narrator"
	ledgermodels "launder/internal/ledger/models"
	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/audit"
	"launder/pkg/requestcontext"
)

// Ledger is the subset of the ledger gateway the engine settles against.
type Ledger interface {
	GetOrCreateAccount(ctx context.Context, name string) (*ledgermodels.AccountResponse, error)
	GetBalance(ctx context.Context, id uuid.UUID) (*ledgermodels.BalanceResponse, error)
	Transfer(ctx context.Context, from, to string, amount int64) error
	AwaitBalance(ctx context.Context, id uuid.UUID, cond func(balance int64) bool) (*ledgermodels.BalanceResponse, bool, error)
}

// RoundStore holds the current round: its running total, the requests it
// cleared and the day count. Replicas sharing a store narrate the same round.
type RoundStore interface {
	// Commit adds amount within threshold and records rec, busted when the
	// amount did not fit, in one atomic step.
	Commit(ctx context.Context, rec models.Record, amount, threshold int64) (total int64, accepted bool, err error)
	Append(ctx context.Context, rec models.Record) error
	// Close empties the round and returns the next day with its records.
	Close(ctx context.Context) (day int, records []models.Record, err error)
	Reset(ctx context.Context) error
}

type Narrator interface {
	Narrate(ctx context.Context, day int, records []models.Record) (string, error)
}

// Config names the engine's accounts and the round threshold.
type Config struct {
	Threshold         int64
	FundedAccount     string
	AuthorityAccount  string
	ReceivableAccount string
}

type Service struct {
	cfg      Config
	ledger   Ledger
	round    RoundStore
	narrator Narrator
	auditor  audit.Emitter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithNarrator(n Narrator) Option {
	return func(s *Service) { s.narrator = n }
}

func WithAuditor(a audit.Emitter) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(cfg Config, ledger Ledger, round RoundStore, opts ...Option) (*Service, error) {
	if ledger == nil || round == nil {
		return nil, fmt.Errorf("ledger and round store are required")
	}
	if cfg.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive")
	}
	if cfg.FundedAccount == "" || cfg.AuthorityAccount == "" {
		return nil, fmt.Errorf("funded and authority accounts are required")
	}
	s := &Service{
		cfg:      cfg,
		ledger:   ledger,
		round:    round,
		narrator: narrator.Scripted{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("launder/laundromat"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Prepare provisions the engine's accounts and empties the authority
// account into the funded reserve so a run starts with nothing seized.
func (s *Service) Prepare(ctx context.Context) error {
	names := []string{s.cfg.FundedAccount, s.cfg.AuthorityAccount}
	if s.cfg.ReceivableAccount != "" {
		names = append(names, s.cfg.ReceivableAccount)
	}
	accounts := make(map[string]*ledgermodels.AccountResponse, len(names))
	for _, name := range names {
		acct, err := s.ledger.GetOrCreateAccount(ctx, name)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeProvisionFailed, fmt.Sprintf("failed to provision %s", name))
		}
		accounts[name] = acct
	}

	if err := s.round.Reset(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to reset round")
	}

	authority := accounts[s.cfg.AuthorityAccount]
	balance, err := s.ledger.GetBalance(ctx, authority.ID)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "authority balance", "account", authority.Name, "balance", balance.FormattedCash)
	if balance.Balance == 0 {
		return nil
	}

	s.logger.InfoContext(ctx, "emptying authority account", "amount", balance.Balance)
	if err := s.ledger.Transfer(ctx, s.cfg.AuthorityAccount, s.cfg.FundedAccount, balance.Balance); err != nil {
		return err
	}
	last, ok, err := s.ledger.AwaitBalance(ctx, authority.ID, func(b int64) bool { return b == 0 })
	if !ok {
		s.logger.WarnContext(ctx, "authority emptying not yet visible", "last", last, "error", err)
	}
	return nil
}

// Clear prices one laundering request. The outcome is decided before any
// money moves; a failed payout leaves the decision intact and reports
// Success=false.
func (s *Service) Clear(ctx context.Context, strategy game.Strategy, req models.LaunderRequest) (*game.LaunderOutcome, error) {
	profile, err := game.ProfileFor(strategy)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "laundromat.clear", trace.WithAttributes(
		attribute.String("syndicate", req.Name),
		attribute.String("strategy", string(strategy)),
	))
	defer span.End()

	outcome, err := s.decide(ctx, profile, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decision failed")
		return nil, err
	}

	outcome.Success = s.payout(ctx, req, outcome)
	span.SetAttributes(
		attribute.Bool("busted", outcome.Busted),
		attribute.Bool("success", outcome.Success),
	)

	label := "clean"
	switch {
	case outcome.Busted:
		label = "busted"
	case profile.Taxed():
		label = "taxed"
	}
	s.metrics.ObserveClear(string(strategy), label, outcome.AmountClean, outcome.AmountLost)
	s.emit(ctx, req, outcome, profile)

	s.logger.InfoContext(ctx, "laundering cleared",
		"request_id", requestcontext.RequestID(ctx),
		"syndicate", req.Name,
		"strategy", strategy,
		"amount_clean", outcome.AmountClean,
		"amount_lost", outcome.AmountLost,
		"busted", outcome.Busted,
		"success", outcome.Success,
	)
	return &outcome, nil
}

func (s *Service) decide(ctx context.Context, profile game.Profile, req models.LaunderRequest) (game.LaunderOutcome, error) {
	rec := models.Record{
		Syndicate: req.Name,
		BossName:  req.BossName,
		Strategy:  profile.Strategy,
		Taxed:     profile.Taxed(),
	}
	if profile.Taxed() {
		if err := s.round.Append(ctx, rec); err != nil {
			return game.FailedOutcome(profile.Strategy), dErrors.Wrap(err, dErrors.CodeUnavailable, "round unavailable")
		}
		return game.Clear(profile, false), nil
	}

	total, accepted, err := s.round.Commit(ctx, rec, profile.Amount, s.cfg.Threshold)
	if err != nil {
		return game.FailedOutcome(profile.Strategy), dErrors.Wrap(err, dErrors.CodeUnavailable, "round total unavailable")
	}
	s.metrics.SetRoundTotal(total)
	return game.Clear(profile, accepted), nil
}

func (s *Service) payout(ctx context.Context, req models.LaunderRequest, out game.LaunderOutcome) bool {
	ok := true
	if out.AmountClean > 0 {
		if err := s.ledger.Transfer(ctx, s.cfg.FundedAccount, req.CleanAccountName, out.AmountClean); err != nil {
			ok = false
			s.metrics.IncrementPayoutFailure("clean")
			s.logger.ErrorContext(ctx, "clean payout failed",
				"syndicate", req.Name,
				"to", req.CleanAccountName,
				"amount", out.AmountClean,
				"error", err,
			)
		}
	}
	if out.AmountLost > 0 {
		if err := s.ledger.Transfer(ctx, s.cfg.FundedAccount, s.cfg.AuthorityAccount, out.AmountLost); err != nil {
			ok = false
			s.metrics.IncrementPayoutFailure("lost")
			s.logger.ErrorContext(ctx, "seizure transfer failed",
				"syndicate", req.Name,
				"amount", out.AmountLost,
				"error", err,
			)
		}
	}
	return ok
}

// Narrate closes the current round in the shared store and hands every
// request cleared by any replica during it to the narrator.
func (s *Service) Narrate(ctx context.Context) (string, error) {
	ctx, span := s.tracer.Start(ctx, "laundromat.narrate")
	defer span.End()

	day, records, err := s.round.Close(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "close failed")
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to close round")
	}
	s.metrics.SetRoundTotal(0)

	abstract, err := s.narrator.Narrate(ctx, day, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "narration failed")
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to narrate round")
	}
	span.SetAttributes(attribute.Int("day", day), attribute.Int("records", len(records)))
	s.metrics.IncrementRounds()

	if s.auditor != nil {
		if err := s.auditor.Emit(ctx, audit.Event{
			Action:    string(audit.EventRoundNarrated),
			Day:       day,
			RequestID: requestcontext.RequestID(ctx),
		}); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed", "action", audit.EventRoundNarrated, "error", err)
		}
	}
	s.logger.InfoContext(ctx, "round narrated", "day", day, "records", len(records))
	return abstract, nil
}

func (s *Service) emit(ctx context.Context, req models.LaunderRequest, out game.LaunderOutcome, profile game.Profile) {
	if s.auditor == nil {
		return
	}
	action := audit.EventLaunderCleared
	switch {
	case out.Busted:
		action = audit.EventSyndicateBusted
	case profile.Taxed():
		action = audit.EventTaxesPaid
	}
	event := audit.Event{
		Action:    string(action),
		Subject:   req.Name,
		Strategy:  string(out.Strategy),
		Amount:    out.AmountClean,
		Lost:      out.AmountLost,
		RequestID: requestcontext.RequestID(ctx),
	}
	if !out.Success {
		event.Reason = "payout_failed"
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
