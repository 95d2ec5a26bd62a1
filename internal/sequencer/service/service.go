// Package service drives a run of the game: one abstract per day, then one
// turn per live syndicate in a shuffled order, persisting the activity log
// after every step.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	ledgermodels "launder/internal/ledger/models"
	"launder/internal/sequencer/metrics"
	"launder/internal/sequencer/models"
	syndicatemodels "launder/internal/syndicate/models"
	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/audit"
)

// Laundromat produces the day's abstract. Each call closes a round.
type Laundromat interface {
	Abstract(ctx context.Context) (string, error)
}

type Syndicate interface {
	Profile(ctx context.Context) (*syndicatemodels.Profile, error)
	Launder(ctx context.Context, abstract string) (*syndicatemodels.TurnResult, error)
}

type Ledger interface {
	GetOrCreateAccount(ctx context.Context, name string) (*ledgermodels.AccountResponse, error)
	GetBalance(ctx context.Context, id uuid.UUID) (*ledgermodels.BalanceResponse, error)
}

type LogStore interface {
	Load(ctx context.Context) (*models.ActivityLog, error)
	Save(ctx context.Context, log *models.ActivityLog) error
}

// Player is a syndicate as the sequencer knows it: a name and a way to reach it.
type Player struct {
	Name  string
	Agent Syndicate
}

type Config struct {
	Days             int
	AuthorityAccount string
	// BalanceSettle is waited after each turn before the authority balance
	// is read.
	BalanceSettle time.Duration
}

type Sequencer struct {
	cfg        Config
	laundromat Laundromat
	players    []Player
	ledger     Ledger
	store      LogStore
	rand       *rand.Rand
	auditor    audit.Emitter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer

	authorityID uuid.UUID
}

type Option func(*Sequencer)

// WithRand sets the source of turn order.
func WithRand(r *rand.Rand) Option {
	return func(s *Sequencer) { s.rand = r }
}

func WithAuditor(a audit.Emitter) Option {
	return func(s *Sequencer) { s.auditor = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sequencer) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequencer) { s.logger = logger }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Sequencer) { s.tracer = t }
}

func New(cfg Config, laundromat Laundromat, players []Player, ledger Ledger, store LogStore, opts ...Option) (*Sequencer, error) {
	if laundromat == nil || ledger == nil || store == nil {
		return nil, fmt.Errorf("laundromat, ledger and log store are required")
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("at least one syndicate is required")
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p.Name == "" || p.Agent == nil {
			return nil, fmt.Errorf("syndicate name and agent are required")
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate syndicate %q", p.Name)
		}
		seen[p.Name] = true
	}
	if cfg.Days <= 0 {
		return nil, fmt.Errorf("days must be positive")
	}
	if cfg.AuthorityAccount == "" {
		return nil, fmt.Errorf("authority account is required")
	}

	s := &Sequencer{
		cfg:        cfg,
		laundromat: laundromat,
		players:    slices.Clone(players),
		ledger:     ledger,
		store:      store,
		rand:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:     slog.Default(),
		tracer:     otel.Tracer("launder/sequencer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Clean replaces the persisted log with an empty one.
func (s *Sequencer) Clean(ctx context.Context) error {
	return s.save(ctx, models.NewActivityLog())
}

// Run plays every day and returns the final report. With resume set it
// continues from the persisted log: recorded turns are not replayed and a
// day that already has an abstract keeps it.
func (s *Sequencer) Run(ctx context.Context, resume bool) (*models.Report, error) {
	log := models.NewActivityLog()
	if resume {
		loaded, err := s.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load activity log: %w", err)
		}
		log = loaded
		s.logger.InfoContext(ctx, "resuming run",
			"current_day", log.CurrentDay,
			"recorded_turns", log.Outcomes(),
		)
	}
	if err := s.save(ctx, log); err != nil {
		return nil, err
	}

	for day := 1; day <= s.cfg.Days; day++ {
		if err := s.playDay(ctx, log, day); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "run finished", "days", s.cfg.Days, "turns", log.Outcomes())
	return s.Report(ctx, log), nil
}

func (s *Sequencer) playDay(ctx context.Context, log *models.ActivityLog, day int) error {
	ctx, span := s.tracer.Start(ctx, "sequencer.day", trace.WithAttributes(attribute.Int("day", day)))
	defer span.End()

	entry := log.StartDay(day)
	if err := s.save(ctx, log); err != nil {
		return err
	}

	if entry.Abstract == "" {
		abstract, err := s.laundromat.Abstract(ctx)
		if err == nil && abstract == "" {
			err = dErrors.New(dErrors.CodeRemoteCallFailed, "laundromat returned an empty abstract")
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "abstract unavailable")
			return fmt.Errorf("day %d abstract: %w", day, err)
		}
		entry.Abstract = abstract
		if err := s.save(ctx, log); err != nil {
			return err
		}
	}
	s.logger.InfoContext(ctx, "day started", "day", day, "abstract", entry.Abstract)

	for _, p := range s.order() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, done := entry.Syndicates[p.Name]; done {
			s.metrics.IncrementTurn("resumed")
			continue
		}
		if log.Busted(p.Name) {
			s.metrics.IncrementTurn("skipped")
			continue
		}
		if !s.playTurn(ctx, log, entry, p) {
			continue
		}
		s.refreshAuthority(ctx, log)
		if err := s.save(ctx, log); err != nil {
			return err
		}
	}

	s.metrics.IncrementDay()
	s.audit(ctx, audit.Event{Action: string(audit.EventDayCompleted), Day: day, Amount: log.AuthorityBalance})
	return nil
}

// playTurn records one syndicate's turn into entry. It reports false when
// the syndicate was skipped and nothing was recorded. Failures are recorded
// with Success=false and the last balances the log knows about.
func (s *Sequencer) playTurn(ctx context.Context, log *models.ActivityLog, entry *models.Day, p Player) bool {
	ctx, span := s.tracer.Start(ctx, "sequencer.turn", trace.WithAttributes(attribute.String("syndicate", p.Name)))
	defer span.End()

	failed := func(stage string, err error) bool {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "syndicate turn failed",
			"day", entry.Day,
			"syndicate", p.Name,
			"stage", stage,
			"error", err,
		)
		s.metrics.IncrementTurn("failed")
		s.audit(ctx, audit.Event{Action: string(audit.EventTurnFailed), Subject: p.Name, Day: entry.Day, Reason: stage + ": " + string(dErrors.CodeOf(err))})

		last, _ := log.Last(p.Name)
		entry.Syndicates[p.Name] = syndicatemodels.TurnResult{
			DirtyBalance: last.DirtyBalance,
			CleanBalance: last.CleanBalance,
		}
		return true
	}

	profile, err := p.Agent.Profile(ctx)
	if err != nil {
		return failed("profile", err)
	}
	if profile.Busted {
		s.logger.InfoContext(ctx, "syndicate busted, skipping", "day", entry.Day, "syndicate", p.Name)
		s.metrics.IncrementTurn("skipped")
		return false
	}

	result, err := p.Agent.Launder(ctx, entry.Abstract)
	if err != nil {
		return failed("launder", err)
	}

	entry.Syndicates[p.Name] = *result
	label := "ok"
	if result.Busted {
		label = "busted"
	}
	s.metrics.IncrementTurn(label)
	span.SetAttributes(attribute.String("strategy", string(result.Strategy)), attribute.Bool("busted", result.Busted))
	s.logger.InfoContext(ctx, "syndicate turn recorded",
		"day", entry.Day,
		"syndicate", p.Name,
		"strategy", result.Strategy,
		"amount_clean", result.AmountClean,
		"amount_lost", result.AmountLost,
		"busted", result.Busted,
		"success", result.Success,
	)
	return true
}

func (s *Sequencer) order() []Player {
	out := slices.Clone(s.players)
	s.rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// refreshAuthority updates the log's authority balance, best effort.
func (s *Sequencer) refreshAuthority(ctx context.Context, log *models.ActivityLog) {
	if s.cfg.BalanceSettle > 0 {
		t := time.NewTimer(s.cfg.BalanceSettle)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
	balance, err := s.authorityBalance(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "authority balance unavailable", "error", err)
		return
	}
	log.AuthorityBalance = balance
	s.metrics.SetAuthority(balance)
}

func (s *Sequencer) authorityBalance(ctx context.Context) (int64, error) {
	if s.authorityID == uuid.Nil {
		acct, err := s.ledger.GetOrCreateAccount(ctx, s.cfg.AuthorityAccount)
		if err != nil {
			return 0, err
		}
		s.authorityID = acct.ID
	}
	bal, err := s.ledger.GetBalance(ctx, s.authorityID)
	if err != nil {
		return 0, err
	}
	return bal.Balance, nil
}

// Report reads every syndicate's final balances and the authority balance
// concurrently. It never fails: unreadable values fall back to the last
// logged ones and the error is noted in the report.
func (s *Sequencer) Report(ctx context.Context, log *models.ActivityLog) *models.Report {
	report := &models.Report{
		Syndicates: make([]models.Balances, len(s.players)),
		Authority:  log.AuthorityBalance,
		Outcomes:   log.Outcomes(),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range s.players {
		g.Go(func() error {
			report.Syndicates[i] = s.balances(gctx, log, p)
			return nil
		})
	}
	g.Go(func() error {
		balance, err := s.authorityBalance(gctx)
		if err != nil {
			report.AuthorityErr = err.Error()
			return nil
		}
		report.Authority = balance
		return nil
	})
	_ = g.Wait()

	for _, b := range report.Syndicates {
		attrs := []any{
			"syndicate", b.Syndicate,
			"dirty", ledgermodels.FormatCash(b.Dirty),
			"clean", ledgermodels.FormatCash(b.Clean),
			"busted", b.Busted,
		}
		if b.Err != "" {
			s.logger.WarnContext(ctx, "final balances incomplete", append(attrs, "error", b.Err)...)
			continue
		}
		s.logger.InfoContext(ctx, "final balances", attrs...)
	}
	if report.AuthorityErr != "" {
		s.logger.WarnContext(ctx, "authority balance unavailable", "last_logged", report.Authority, "error", report.AuthorityErr)
	} else {
		s.logger.InfoContext(ctx, "taxed balance", "account", s.cfg.AuthorityAccount, "balance", ledgermodels.FormatCash(report.Authority))
	}
	return report
}

func (s *Sequencer) balances(ctx context.Context, log *models.ActivityLog, p Player) models.Balances {
	last, _ := log.Last(p.Name)
	out := models.Balances{
		Syndicate: p.Name,
		Dirty:     last.DirtyBalance,
		Clean:     last.CleanBalance,
		Busted:    log.Busted(p.Name),
	}

	profile, err := p.Agent.Profile(ctx)
	if err != nil {
		out.Err = "profile: " + err.Error()
		return out
	}
	out.DirtyAddress, out.CleanAddress = profile.DirtyWalletAddress, profile.CleanWalletAddress
	out.Busted = out.Busted || profile.Busted

	var errs []string
	if bal, err := s.ledger.GetBalance(ctx, profile.DirtyWalletAddress); err == nil {
		out.Dirty = bal.Balance
	} else {
		errs = append(errs, "dirty: "+err.Error())
	}
	if bal, err := s.ledger.GetBalance(ctx, profile.CleanWalletAddress); err == nil {
		out.Clean = bal.Balance
	} else {
		errs = append(errs, "clean: "+err.Error())
	}
	if len(errs) > 0 {
		out.Err = fmt.Sprint(errs)
	}
	return out
}

func (s *Sequencer) save(ctx context.Context, log *models.ActivityLog) error {
	if err := s.store.Save(ctx, log); err != nil {
		s.metrics.IncrementLogWrite("error")
		return fmt.Errorf("persist activity log: %w", err)
	}
	s.metrics.IncrementLogWrite("ok")
	return nil
}

func (s *Sequencer) audit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
