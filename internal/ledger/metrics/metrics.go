package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	Transfers       *prometheus.CounterVec
	TransferredUnit prometheus.Counter
	Provisioned     prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launder_ledger_transfers_total",
			Help: "Ledger transfers by outcome",
		}, []string{"outcome"}), // outcome: "ok", "insufficient_funds", "not_found", "error"
		TransferredUnit: factory.NewCounter(prometheus.CounterOpts{
			Name: "launder_ledger_transferred_units_total",
			Help: "Base units moved by successful transfers",
		}),
		Provisioned: factory.NewCounter(prometheus.CounterOpts{
			Name: "launder_ledger_accounts_provisioned_total",
			Help: "Get-or-create account calls",
		}),
	}
}

func (m *Metrics) IncrementTransfer(outcome string, amount int64) {
	if m == nil {
		return
	}
	m.Transfers.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.TransferredUnit.Add(float64(amount))
	}
}

func (m *Metrics) IncrementProvisioned() {
	if m != nil {
		m.Provisioned.Inc()
	}
}
