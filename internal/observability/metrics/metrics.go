package metrics

import "github.com/prometheus/client_golang/prometheus"

// ProxyMetrics exposes counters/histograms for upstream forwards.
type ProxyMetrics struct {
	forwardsTotal  *prometheus.CounterVec
	forwardLatency *prometheus.HistogramVec
}

func NewProxyMetrics(reg prometheus.Registerer) *ProxyMetrics {
	m := &ProxyMetrics{
		forwardsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imed",
			Subsystem: "proxy",
			Name:      "forwards_total",
			Help:      "Total forwards to the upstream appointment service",
		}, []string{"action", "outcome"}),
		forwardLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "imed",
			Subsystem: "proxy",
			Name:      "forward_latency_seconds",
			Help:      "Latency of upstream appointment service calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.forwardsTotal, m.forwardLatency)
	return m
}

// ObserveForward records one completed forward for an action.
// Outcome is "ok" for any upstream response and "error" for transport failures.
func (m *ProxyMetrics) ObserveForward(action, outcome string) {
	if m == nil {
		return
	}
	m.forwardsTotal.WithLabelValues(action, outcome).Inc()
}

// ObserveLatency records how long one upstream call took.
func (m *ProxyMetrics) ObserveLatency(action string, seconds float64) {
	if m == nil {
		return
	}
	m.forwardLatency.WithLabelValues(action).Observe(seconds)
}
