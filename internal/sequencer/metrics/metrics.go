package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks run progress for the orchestrator.
type Metrics struct {
	Days      prometheus.Counter
	Turns     *prometheus.CounterVec
	Authority prometheus.Gauge
	LogWrites *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Days: factory.NewCounter(prometheus.CounterOpts{
			Name: "launder_sequencer_days_total",
			Help: "Days completed",
		}),
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launder_sequencer_turns_total",
			Help: "Syndicate turns by result",
		}, []string{"result"}), // result: "ok", "busted", "failed", "skipped", "resumed"
		Authority: factory.NewGauge(prometheus.GaugeOpts{
			Name: "launder_sequencer_authority_units",
			Help: "Last observed authority balance",
		}),
		LogWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launder_sequencer_log_writes_total",
			Help: "Activity log writes by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementDay() {
	if m == nil {
		return
	}
	m.Days.Inc()
}

func (m *Metrics) IncrementTurn(result string) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(result).Inc()
}

func (m *Metrics) SetAuthority(units int64) {
	if m == nil {
		return
	}
	m.Authority.Set(float64(units))
}

func (m *Metrics) IncrementLogWrite(result string) {
	if m == nil {
		return
	}
	m.LogWrites.WithLabelValues(result).Inc()
}
