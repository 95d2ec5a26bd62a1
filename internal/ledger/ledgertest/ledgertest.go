// Package ledgertest runs an in-memory ledger behind an httptest server so
// agent tests can settle against the real HTTP surface.
package ledgertest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"launder/internal/ledger/client"
	"launder/internal/ledger/handler"
	"launder/internal/ledger/service"
	"launder/internal/ledger/store/account"
	"launder/internal/platform/logger"
)

type Ledger struct {
	Server  *httptest.Server
	Service *service.Service
	Gateway *client.Client
}

// New starts a ledger whose funded reserve holds supply units.
func New(t *testing.T, fundedAccount string, supply int64) *Ledger {
	t.Helper()

	svc, err := service.New(account.NewInMemory(), service.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	if _, err := svc.Bootstrap(context.Background(), fundedAccount, supply); err != nil {
		t.Fatalf("ledger bootstrap: %v", err)
	}

	r := chi.NewRouter()
	handler.New(svc, logger.Discard()).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	gw, err := client.New(srv.URL, client.WithLogger(logger.Discard()), client.WithAwait(2, time.Millisecond))
	if err != nil {
		t.Fatalf("ledger gateway: %v", err)
	}
	return &Ledger{Server: srv, Service: svc, Gateway: gw}
}

// Fund provisions name and moves amount into it from the funded reserve.
func (l *Ledger) Fund(t *testing.T, fundedAccount, name string, amount int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := l.Service.GetOrCreateAccount(ctx, name); err != nil {
		t.Fatalf("provision %s: %v", name, err)
	}
	if err := l.Service.Transfer(ctx, fundedAccount, name, amount); err != nil {
		t.Fatalf("fund %s: %v", name, err)
	}
}

// Balance reads name's balance straight from the service.
func (l *Ledger) Balance(t *testing.T, name string) int64 {
	t.Helper()
	acct, err := l.Service.GetOrCreateAccount(context.Background(), name)
	if err != nil {
		t.Fatalf("balance %s: %v", name, err)
	}
	return acct.Balance
}
