package apply

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors updated by an Applier.
// A nil *Metrics records nothing.
type Metrics struct {
	PlansTotal      *prometheus.CounterVec
	StatementsTotal *prometheus.CounterVec
	ApplyDuration   *prometheus.HistogramVec
}

// NewMetrics creates the applier collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PlansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schemaforge",
			Subsystem: "apply",
			Name:      "plans_total",
			Help:      "Total number of migration plans applied, by outcome",
		}, []string{"schema", "status"}),
		StatementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schemaforge",
			Subsystem: "apply",
			Name:      "statements_total",
			Help:      "Total number of migration statements executed, by outcome",
		}, []string{"schema", "status"}),
		ApplyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "schemaforge",
			Subsystem: "apply",
			Name:      "duration_seconds",
			Help:      "Duration of migration applies in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"schema"}),
	}
	if reg != nil {
		reg.MustRegister(m.PlansTotal, m.StatementsTotal, m.ApplyDuration)
	}
	return m
}

func (m *Metrics) observe(schemaName string, executed int, failed bool, seconds float64) {
	if m == nil {
		return
	}
	status := "applied"
	if failed {
		status = "failed"
		m.StatementsTotal.WithLabelValues(schemaName, "failed").Inc()
	}
	m.PlansTotal.WithLabelValues(schemaName, status).Inc()
	m.StatementsTotal.WithLabelValues(schemaName, "ok").Add(float64(executed))
	m.ApplyDuration.WithLabelValues(schemaName).Observe(seconds)
}
