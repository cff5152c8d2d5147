package sim

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts executor activity per strategy.
type Metrics struct {
	TradesExecuted *prometheus.CounterVec
	TradesSkipped  *prometheus.CounterVec
	Commission     *prometheus.CounterVec
	Notional       *prometheus.CounterVec
}

// NewMetrics builds the executor counters and registers them on reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TradesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cppi",
			Subsystem: "sim",
			Name:      "trades_executed_total",
			Help:      "Simulated fills by strategy and side.",
		}, []string{"strategy", "side"}),
		TradesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cppi",
			Subsystem: "sim",
			Name:      "trades_skipped_total",
			Help:      "Orders not filled by strategy and reason.",
		}, []string{"strategy", "reason"}),
		Commission: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cppi",
			Subsystem: "sim",
			Name:      "commission_dollars_total",
			Help:      "Commission paid by strategy.",
		}, []string{"strategy"}),
		Notional: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cppi",
			Subsystem: "sim",
			Name:      "notional_dollars_total",
			Help:      "Gross premium traded by strategy.",
		}, []string{"strategy"}),
	}
	if reg != nil {
		reg.MustRegister(m.TradesExecuted, m.TradesSkipped, m.Commission, m.Notional)
	}
	return m
}

func (m *Metrics) observe(t Trade) {
	m.TradesExecuted.WithLabelValues(t.Strategy, string(t.Side)).Inc()
	m.Commission.WithLabelValues(t.Strategy).Add(t.Commission)
	m.Notional.WithLabelValues(t.Strategy).Add(t.Gross())
}
