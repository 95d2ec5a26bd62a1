package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"launder/internal/game"
	"launder/internal/laundromat/handler"
	"launder/internal/laundromat/metrics"
	"launder/internal/laundromat/narrator"
	"launder/internal/laundromat/service"
	"launder/internal/laundromat/store/roundtotal"
	ledgerclient "launder/internal/ledger/client"
	"launder/internal/platform/auditsink"
	"launder/internal/platform/config"
	"launder/internal/platform/httpserver"
	"launder/internal/platform/llm"
	"launder/internal/platform/logger"
	httpmetrics "launder/internal/platform/metrics"
	"launder/internal/platform/middleware"
	platformredis "launder/internal/platform/redis"
	"launder/pkg/platform/payment"
)

const defaultAddr = ":3000"

// main runs the clearing engine: paid laundering entrypoints, the round
// threshold and the daily abstract.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "laundromat:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "launder.yaml", "path to the YAML config file")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logger.New(cfg.Log, "laundromat")
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

	rdb, err := platformredis.Open(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var (
		round  service.RoundStore  = roundtotal.NewInMemory()
		guard  payment.ReplayGuard = payment.NewMemoryReplayGuard()
	)
	if rdb != nil {
		defer rdb.Close()
		round = roundtotal.NewRedis(rdb, cfg.Redis.KeyPrefix)
		guard = payment.NewRedisReplayGuard(rdb, cfg.Redis.KeyPrefix)
		log.InfoContext(ctx, "round state and payment replay guard on redis")
	}

	sink, err := auditsink.Open(ctx, cfg.Audit, "laundromat", prometheus.DefaultRegisterer, log.Logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	opts := []service.Option{
		service.WithLogger(log.Logger),
		service.WithMetrics(metrics.New()),
		service.WithAuditor(sink),
	}
	if cfg.Oracle.Narrate && cfg.Oracle.Mode == "llm" {
		completer, err := llm.New(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model,
			llm.WithHTTPClient(&http.Client{Timeout: cfg.Oracle.Timeout}))
		if err != nil {
			return err
		}
		opts = append(opts, service.WithNarrator(narrator.NewLLM(completer, log.Logger)))
	}

	svc, err := service.New(service.Config{
		Threshold:         cfg.Game.Threshold,
		FundedAccount:     game.FundedAccountName,
		AuthorityAccount:  game.AuthorityAccountName,
		ReceivableAccount: cfg.Payments.ReceivableAddress,
	}, ledger, round, opts...)
	if err != nil {
		return err
	}
	if err := svc.Prepare(ctx); err != nil {
		return fmt.Errorf("prepare accounts: %w", err)
	}

	verifier, err := payment.NewVerifier(cfg.Payments.Secret)
	if err != nil {
		return fmt.Errorf("payments: %w", err)
	}
	wall, err := middleware.NewPaywall(middleware.PaywallConfig{
		Network:  cfg.Payments.Network,
		PayTo:    cfg.Payments.ReceivableAddress,
		TokenTTL: cfg.Payments.TokenTTL,
	}, verifier, guard, ledger, log.Logger)
	if err != nil {
		return err
	}

	router := httpserver.NewRouter(httpmetrics.New("laundromat"))
	handler.New(svc, wall, log.Logger).Register(router)

	log.InfoContext(ctx, "laundromat ready",
		"threshold", cfg.Game.Threshold,
		"receivable", cfg.Payments.ReceivableAddress,
		"network", cfg.Payments.Network,
		"version", cfg.Agent.Version,
	)
	listen := firstNonEmpty(*addr, cfg.Server.Addr, defaultAddr)
	return httpserver.Run(ctx, httpserver.New(listen, router), cfg.Server.ShutdownTimeout, log.Logger)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
