// Package auditsink picks the audit store for a process from config: the
// Kafka topic when brokers are configured, the process log otherwise.
package auditsink

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"launder/internal/platform/config"
	"launder/pkg/platform/audit"
	"launder/pkg/platform/audit/publisher"
	"launder/pkg/platform/audit/store/kafka"
	"launder/pkg/platform/audit/store/logstore"
)

const bufferSize = 256

// Sink is an audit publisher plus whatever must be closed after it drains.
type Sink struct {
	*publisher.Publisher
	closers []func()
}

// Open builds the publisher for agent. A Kafka store that cannot create its
// topic still starts; the publisher's breaker absorbs the failures.
func Open(ctx context.Context, cfg config.AuditConfig, agent string, reg prometheus.Registerer, logger *slog.Logger) (*Sink, error) {
	var (
		store   audit.Store
		closers []func()
	)
	if len(cfg.KafkaBrokers) > 0 {
		ks, err := kafka.New(cfg.KafkaBrokers, cfg.Topic)
		if err != nil {
			return nil, err
		}
		if err := ks.EnsureTopic(ctx, 1, 1); err != nil {
			logger.WarnContext(ctx, "audit topic not ensured", "topic", cfg.Topic, "error", err)
		}
		store = ks
		closers = append(closers, ks.Close)
		logger.InfoContext(ctx, "audit events go to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.Topic)
	} else {
		store = logstore.New(logger, slog.LevelInfo)
	}

	pub := publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(bufferSize),
		publisher.WithLogger(logger),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
		publisher.WithAgent(agent),
	)
	return &Sink{Publisher: pub, closers: closers}, nil
}

// Close drains pending events, then releases the store.
func (s *Sink) Close() {
	s.Publisher.Close()
	for _, c := range s.closers {
		c()
	}
}
