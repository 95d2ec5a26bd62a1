// Package monitor waits for the game's agents to come up before a run.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	dErrors "launder/pkg/domain-errors"
)

// Target is anything with a health endpoint.
type Target interface {
	Health(ctx context.Context) error
	URL() string
}

type Monitor struct {
	targets  []Target
	schedule string
	logger   *slog.Logger
}

// New polls targets on schedule, a cron expression such as "@every 3s".
func New(targets []Target, schedule string, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{targets: targets, schedule: schedule, logger: logger}
}

// Await returns once every target has answered healthy at least once, or
// fails with CodeUnavailable when deadline passes first.
func (m *Monitor) Await(ctx context.Context, deadline time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var mu sync.Mutex
	pending := make(map[string]Target, len(m.targets))
	for _, t := range m.targets {
		pending[t.URL()] = t
	}
	ready := make(chan struct{})
	var once sync.Once

	check := func() {
		mu.Lock()
		batch := make([]Target, 0, len(pending))
		for _, t := range pending {
			batch = append(batch, t)
		}
		mu.Unlock()

		g, gctx := errgroup.WithContext(ctx)
		for _, t := range batch {
			g.Go(func() error {
				if err := t.Health(gctx); err != nil {
					m.logger.DebugContext(ctx, "agent not ready", "url", t.URL(), "error", err)
					return nil
				}
				mu.Lock()
				delete(pending, t.URL())
				mu.Unlock()
				m.logger.InfoContext(ctx, "agent healthy", "url", t.URL())
				return nil
			})
		}
		_ = g.Wait()

		mu.Lock()
		left := len(pending)
		mu.Unlock()
		if left == 0 {
			once.Do(func() { close(ready) })
			return
		}
		m.logger.InfoContext(ctx, "waiting for agents", "pending", left)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(m.schedule, check); err != nil {
		return fmt.Errorf("invalid health schedule %q: %w", m.schedule, err)
	}

	check()
	select {
	case <-ready:
		return nil
	default:
	}

	c.Start()
	defer func() { <-c.Stop().Done() }()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		mu.Lock()
		urls := make([]string, 0, len(pending))
		for url := range pending {
			urls = append(urls, url)
		}
		mu.Unlock()
		slices.Sort(urls)
		return dErrors.New(dErrors.CodeUnavailable, "agents not healthy: "+strings.Join(urls, ", "))
	}
}
