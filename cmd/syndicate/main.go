package main

import (
	"context"
	"flag"
	"fmt"
	"hash/fnv"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"launder/internal/game"
	laundromatclient "launder/internal/laundromat/client"
	ledgerclient "launder/internal/ledger/client"
	"launder/internal/oracle"
	"launder/internal/platform/auditsink"
	"launder/internal/platform/config"
	"launder/internal/platform/httpserver"
	"launder/internal/platform/llm"
	"launder/internal/platform/logger"
	httpmetrics "launder/internal/platform/metrics"
	"launder/internal/syndicate/handler"
	"launder/internal/syndicate/metrics"
	"launder/internal/syndicate/service"
	"launder/pkg/platform/invoke"
	"launder/pkg/platform/payment"
)

// main runs one syndicate agent. Start one process per syndicate:
//
//	syndicate -name Syndicate1 -addr :3101
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "syndicate:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "launder.yaml", "path to the YAML config file")
	nameFlag := flag.String("name", "", "syndicate name (overrides agent.name)")
	bossFlag := flag.String("boss", "", "boss name (overrides agent.boss_name)")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	name := firstNonEmpty(*nameFlag, cfg.Agent.Name, game.SyndicateName(1))
	boss := firstNonEmpty(*bossFlag, cfg.Agent.BossName, "Boss of "+name)

	log, err := logger.New(cfg.Log, name)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := ledgerclient.New(cfg.Ledger.URL,
		ledgerclient.WithHTTPClient(&http.Client{Timeout: cfg.Ledger.RequestTimeout}),
		ledgerclient.WithLogger(log.Logger),
		ledgerclient.WithAwait(cfg.Ledger.AwaitRetries, cfg.Ledger.AwaitDelay),
	)
	if err != nil {
		return err
	}

	signer, err := payment.NewSigner(cfg.Payments.Secret, cfg.Payments.FacilitatorURL, game.DirtyAccountName(name), cfg.Payments.TokenTTL)
	if err != nil {
		return fmt.Errorf("payments: %w", err)
	}
	invoker := invoke.New(
		invoke.WithSigner(signer, maxPrice()),
		invoke.WithTimeout(cfg.Game.LaundromatTimeout),
		invoke.WithLogger(log.Logger),
	)

	decider, err := newDecider(cfg.Oracle, name, boss, log)
	if err != nil {
		return err
	}

	sink, err := auditsink.Open(ctx, cfg.Audit, name, prometheus.DefaultRegisterer, log.Logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	agent, err := service.New(service.Config{
		Name:              name,
		BossName:          boss,
		StartingDirtyCash: cfg.Game.StartingDirtyCash,
		FundedAccount:     game.FundedAccountName,
	}, ledger, laundromatclient.New(cfg.Game.LaundromatURL, invoker), decider,
		service.WithLogger(log.Logger),
		service.WithMetrics(metrics.New()),
		service.WithAuditor(sink),
	)
	if err != nil {
		return err
	}
	if err := agent.Reset(ctx); err != nil {
		return fmt.Errorf("reset %s: %w", name, err)
	}

	router := httpserver.NewRouter(httpmetrics.New("syndicate"))
	handler.New(agent, log.Logger).Register(router)

	listen := firstNonEmpty(*addr, cfg.Server.Addr, fmt.Sprintf(":%d", cfg.Game.SyndicateBasePort))
	return httpserver.Run(ctx, httpserver.New(listen, router), cfg.Server.ShutdownTimeout, log.Logger)
}

func newDecider(cfg config.OracleConfig, name, boss string, log *logger.Logger) (service.Decider, error) {
	if cfg.Mode == "llm" {
		completer, err := llm.New(cfg.BaseURL, cfg.APIKey, cfg.Model, llm.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		if err != nil {
			return nil, err
		}
		return oracle.NewLLM(completer, name, boss, oracle.WithMaxAttempts(cfg.MaxAttempts), oracle.WithLogger(log.Logger)), nil
	}

	// Each syndicate draws from its own stream even when they share a seed.
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	log.Info("random oracle", "seed", seed)
	return oracle.NewRandom(seed ^ h.Sum64()), nil
}

// maxPrice caps what the agent will pay for one call at the dearest strategy.
func maxPrice() int64 {
	var highest int64
	for _, s := range game.Strategies() {
		if p, err := game.ProfileFor(s); err == nil && p.Amount > highest {
			highest = p.Amount
		}
	}
	return highest
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
