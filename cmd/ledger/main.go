package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"launder/internal/game"
	"launder/internal/ledger/handler"
	"launder/internal/ledger/metrics"
	"launder/internal/ledger/service"
	"launder/internal/ledger/store/account"
	"launder/internal/platform/config"
	"launder/internal/platform/httpserver"
	"launder/internal/platform/logger"
	httpmetrics "launder/internal/platform/metrics"
)

const defaultAddr = ":3200"

// main serves the custodial ledger every other process settles against.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ledger:", err)
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
	log, err := logger.New(cfg.Log, "ledger")
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Ledger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := service.New(store, service.WithLogger(log.Logger), service.WithMetrics(metrics.New()))
	if err != nil {
		return err
	}
	funded, err := svc.Bootstrap(ctx, game.FundedAccountName, cfg.Ledger.InitialSupply)
	if err != nil {
		return fmt.Errorf("bootstrap funded reserve: %w", err)
	}
	log.InfoContext(ctx, "ledger ready",
		"backend", cfg.Ledger.Backend,
		"funded_account", funded.Name,
		"funded_balance", funded.Balance,
	)

	router := httpserver.NewRouter(httpmetrics.New("ledger"))
	handler.New(svc, log.Logger).Register(router)

	listen := firstNonEmpty(*addr, cfg.Server.Addr, defaultAddr)
	return httpserver.Run(ctx, httpserver.New(listen, router), cfg.Server.ShutdownTimeout, log.Logger)
}

func openStore(ctx context.Context, cfg config.LedgerConfig) (service.AccountStore, func(), error) {
	switch cfg.Backend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		store := account.NewPostgres(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	case "sqlite":
		store, err := account.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return account.NewInMemory(), func() {}, nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
