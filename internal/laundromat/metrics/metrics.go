package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the clearing engine.
type Metrics struct {
	Cleared        *prometheus.CounterVec
	Laundered      prometheus.Counter
	Seized         prometheus.Counter
	RoundTotal     prometheus.Gauge
	Rounds         prometheus.Counter
	PayoutFailures *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Cleared: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launder_laundromat_cleared_total",
			Help: "Laundering requests cleared by strategy and outcome",
		}, []string{"strategy", "outcome"}), // outcome: "clean", "busted", "taxed"
		Laundered: factory.NewCounter(prometheus.CounterOpts{
			Name: "launder_laundromat_clean_units_total",
			Help: "Units paid out as clean cash",
		}),
		Seized: factory.NewCounter(prometheus.CounterOpts{
			Name: "launder_laundromat_seized_units_total",
			Help: "Units sent to the authority account",
		}),
		RoundTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "launder_laundromat_round_total_units",
			Help: "Running total of the current round",
		}),
		Rounds: factory.NewCounter(prometheus.CounterOpts{
			Name: "launder_laundromat_rounds_narrated_total",
			Help: "Abstracts produced",
		}),
		PayoutFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launder_laundromat_payout_failures_total",
			Help: "Payout transfers that failed after the outcome was decided",
		}, []string{"leg"}), // leg: "clean", "lost"
	}
}

func (m *Metrics) ObserveClear(strategy, outcome string, clean, lost int64) {
	if m == nil {
		return
	}
	m.Cleared.WithLabelValues(strategy, outcome).Inc()
	m.Laundered.Add(float64(clean))
	m.Seized.Add(float64(lost))
}

func (m *Metrics) SetRoundTotal(total int64) {
	if m == nil {
		return
	}
	m.RoundTotal.Set(float64(total))
}

func (m *Metrics) IncrementRounds() {
	if m == nil {
		return
	}
	m.Rounds.Inc()
	m.RoundTotal.Set(0)
}

func (m *Metrics) IncrementPayoutFailure(leg string) {
	if m == nil {
		return
	}
	m.PayoutFailures.WithLabelValues(leg).Inc()
}
