package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for one syndicate agent.
type Metrics struct {
	Turns        *prometheus.CounterVec
	OracleMisses prometheus.Counter
	Busted       prometheus.Gauge
	DirtyCash    prometheus.Gauge
	CleanCash    prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launder_syndicate_turns_total",
			Help: "Turns taken by strategy and result",
		}, []string{"strategy", "result"}), // result: "ok", "busted", "failed", "skipped"
		OracleMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "launder_syndicate_oracle_fallbacks_total",
			Help: "Turns where the oracle answer was unusable and the safest strategy was played",
		}),
		Busted: factory.NewGauge(prometheus.GaugeOpts{
			Name: "launder_syndicate_busted",
			Help: "1 once the syndicate has been busted",
		}),
		DirtyCash: factory.NewGauge(prometheus.GaugeOpts{
			Name: "launder_syndicate_dirty_units",
			Help: "Last observed dirty balance",
		}),
		CleanCash: factory.NewGauge(prometheus.GaugeOpts{
			Name: "launder_syndicate_clean_units",
			Help: "Last observed clean balance",
		}),
	}
}

func (m *Metrics) IncrementTurn(strategy, result string) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(strategy, result).Inc()
}

func (m *Metrics) IncrementOracleFallback() {
	if m == nil {
		return
	}
	m.OracleMisses.Inc()
}

func (m *Metrics) ObserveState(busted bool, dirty, clean int64) {
	if m == nil {
		return
	}
	if busted {
		m.Busted.Set(1)
	} else {
		m.Busted.Set(0)
	}
	m.DirtyCash.Set(float64(dirty))
	m.CleanCash.Set(float64(clean))
}
