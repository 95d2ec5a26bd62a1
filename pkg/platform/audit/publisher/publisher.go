// Package publisher emits audit events to a Store either synchronously or
// through a bounded buffer drained by a background goroutine. Persistence
// failures trip a circuit breaker; while it is open events are dropped so a
// dead sink cannot slow the game down.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "launder/pkg/platform/audit"
	"launder/pkg/platform/circuit"
)

var ErrBufferFull = errors.New("audit buffer full")

// Metrics holds Prometheus metrics for audit emission.
type Metrics struct {
	Emitted         prometheus.Counter
	Dropped         prometheus.Counter
	PersistFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Emitted: f.NewCounter(prometheus.CounterOpts{
			Name: "launder_audit_events_emitted_total",
			Help: "Audit events persisted",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "launder_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full or the breaker open",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "launder_audit_persist_failures_total",
			Help: "Audit events the store rejected",
		}),
	}
}

func (m *Metrics) incEmitted() {
	if m != nil {
		m.Emitted.Inc()
	}
}

func (m *Metrics) incDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) incFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

type Publisher struct {
	store   audit.Store
	agent   string
	logger  *slog.Logger
	metrics *Metrics
	breaker *circuit.Breaker
	now     func() time.Time

	mu          sync.Mutex
	cooldown    time.Duration
	lastFailure time.Time

	buffer chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit enqueue instead of writing inline.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan audit.Event, size)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithAgent stamps every event that has no Agent set.
func WithAgent(agent string) Option {
	return func(p *Publisher) { p.agent = agent }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) { p.breaker = b }
}

// WithCooldown sets how long events are dropped after the sink fails
// while the breaker is open.
func WithCooldown(d time.Duration) Option {
	return func(p *Publisher) { p.cooldown = d }
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:    store,
		logger:   slog.Default(),
		breaker:  circuit.New("audit", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(1)),
		now:      time.Now,
		cooldown: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records event. In async mode it never blocks and returns
// ErrBufferFull when the buffer has no room.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	event.Normalize(p.now())
	if event.Agent == "" {
		event.Agent = p.agent
	}

	if p.buffer == nil {
		return p.persist(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	default:
		p.metrics.incDropped()
		return ErrBufferFull
	}
}

// Close stops accepting events and waits for the buffer to drain.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		_ = p.persist(context.Background(), event)
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	if p.breaker.IsOpen() && !p.trialDue() {
		p.metrics.incDropped()
		return nil
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.incFailures()
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "audit sink unhealthy, dropping events", "error", err)
		}
		p.mu.Lock()
		p.lastFailure = p.now()
		p.mu.Unlock()
		return err
	}

	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "audit sink recovered")
	}
	p.metrics.incEmitted()
	return nil
}

// trialDue lets one event through per cooldown while the breaker is open.
func (p *Publisher) trialDue() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.now().Sub(p.lastFailure) < p.cooldown {
		return false
	}
	p.lastFailure = p.now()
	return true
}
