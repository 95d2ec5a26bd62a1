// Package logstore writes audit events to a structured logger. It is the
// default sink when no broker is configured.
package logstore

import (
	"context"
	"log/slog"

	"launder/pkg/platform/audit"
)

type Store struct {
	logger *slog.Logger
	level  slog.Level
}

// New logs every event at level on logger.
func New(logger *slog.Logger, level slog.Level) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger, level: level}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	attrs := []slog.Attr{
		slog.String("category", string(event.Category)),
		slog.String("action", event.Action),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.Agent != "" {
		attrs = append(attrs, slog.String("agent", event.Agent))
	}
	if event.Subject != "" {
		attrs = append(attrs, slog.String("subject", event.Subject))
	}
	if event.Day > 0 {
		attrs = append(attrs, slog.Int("day", event.Day))
	}
	if event.Strategy != "" {
		attrs = append(attrs, slog.String("strategy", event.Strategy))
	}
	if event.Amount != 0 {
		attrs = append(attrs, slog.Int64("amount", event.Amount))
	}
	if event.Lost != 0 {
		attrs = append(attrs, slog.Int64("lost", event.Lost))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", event.RequestID))
	}
	s.logger.LogAttrs(ctx, s.level, "audit", slog.Attr{Key: "event", Value: slog.GroupValue(attrs...)})
	return nil
}

