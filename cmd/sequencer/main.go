package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"launder/internal/game"
	laundromatclient "launder/internal/laundromat/client"
	ledgerclient "launder/internal/ledger/client"
	"launder/internal/platform/auditsink"
	"launder/internal/platform/config"
	"launder/internal/platform/httpserver"
	"launder/internal/platform/logger"
	"launder/internal/sequencer/metrics"
	"launder/internal/sequencer/monitor"
	"launder/internal/sequencer/service"
	"launder/internal/sequencer/store/activitylog"
	syndicateclient "launder/internal/syndicate/client"
	"launder/pkg/platform/invoke"
)

// main drives one run of the game against already running agents and
// prints the final report as JSON. -clean only resets the activity log.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sequencer:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "launder.yaml", "path to the YAML config file")
	resume := flag.Bool("resume", false, "continue the run recorded in the activity log")
	clean := flag.Bool("clean", false, "write an empty activity log and exit")
	metricsAddr := flag.String("metrics-addr", "", "serve /health and /metrics on this address while running")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logger.New(cfg.Log, "sequencer")
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := activitylog.NewFileStore(cfg.Sequencer.LogPath, log.Logger)
	ledger, err := ledgerclient.New(cfg.Ledger.URL,
		ledgerclient.WithHTTPClient(&http.Client{Timeout: cfg.Ledger.RequestTimeout}),
		ledgerclient.WithLogger(log.Logger),
		ledgerclient.WithAwait(cfg.Ledger.AwaitRetries, cfg.Ledger.AwaitDelay),
	)
	if err != nil {
		return err
	}

	laundromat := laundromatclient.New(cfg.Game.LaundromatURL,
		invoke.New(invoke.WithTimeout(cfg.Sequencer.RemoteTimeout), invoke.WithLogger(log.Logger)))
	// A launder call must never be abandoned while the syndicate can still
	// be settling with the laundromat; Validate guarantees the margin.
	turns := invoke.New(invoke.WithTimeout(cfg.Sequencer.TurnTimeout), invoke.WithLogger(log.Logger))
	targets := []monitor.Target{laundromat}
	players := make([]service.Player, 0, cfg.Game.SyndicateCount)
	for i := 1; i <= cfg.Game.SyndicateCount; i++ {
		agent := syndicateclient.New(cfg.Game.SyndicateAddr(i), turns)
		players = append(players, service.Player{Name: game.SyndicateName(i), Agent: agent})
		targets = append(targets, agent)
	}

	sink, err := auditsink.Open(ctx, cfg.Audit, "sequencer", prometheus.DefaultRegisterer, log.Logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	seq, err := service.New(service.Config{
		Days:             cfg.Game.Days,
		AuthorityAccount: game.AuthorityAccountName,
		BalanceSettle:    cfg.Sequencer.BalanceSettle,
	}, laundromat, players, ledger, store,
		service.WithLogger(log.Logger),
		service.WithMetrics(metrics.New()),
		service.WithAuditor(sink),
	)
	if err != nil {
		return err
	}

	if *clean {
		if err := seq.Clean(ctx); err != nil {
			return err
		}
		log.InfoContext(ctx, "activity log cleaned", "path", store.Path())
		return nil
	}

	if *metricsAddr != "" {
		srv := httpserver.New(*metricsAddr, httpserver.NewRouter(nil))
		go func() {
			if err := httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log.Logger); err != nil {
				log.ErrorContext(ctx, "metrics server stopped", "error", err)
			}
		}()
	}

	if !cfg.Sequencer.SkipHealthChecks {
		log.InfoContext(ctx, "waiting for agents", "count", len(targets), "deadline", cfg.Sequencer.HealthDeadline)
		if err := monitor.New(targets, cfg.Sequencer.HealthInterval, log.Logger).Await(ctx, cfg.Sequencer.HealthDeadline); err != nil {
			return err
		}
	}

	report, err := seq.Run(ctx, *resume)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
