package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the resolver's prometheus collectors.
// A nil *Metrics records nothing.
type Metrics struct {
	resolutions *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	shared      prometheus.Counter
	evictions   prometheus.Counter
	cacheSize   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fafo",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Resolve calls by outcome (direct, cache_hit, resolved, failed).",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fafo",
			Subsystem: "resolver",
			Name:      "strategy_attempts_total",
			Help:      "Strategy invocations by strategy and result (ok, error, timeout, unavailable).",
		}, []string{"strategy", "result"}),
		shared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fafo",
			Subsystem: "resolver",
			Name:      "shared_waits_total",
			Help:      "Resolve calls that joined an in-flight resolution instead of starting one.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fafo",
			Subsystem: "resolver",
			Name:      "cache_evictions_total",
			Help:      "Cache entries evicted by capacity pressure.",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fafo",
			Subsystem: "resolver",
			Name:      "cache_entries",
			Help:      "Resolved streams currently cached.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.resolutions, m.attempts, m.shared, m.evictions, m.cacheSize)
	}
	return m
}

func (m *Metrics) outcome(o string) {
	if m != nil {
		m.resolutions.WithLabelValues(o).Inc()
	}
}

func (m *Metrics) attempt(strategy, result string) {
	if m != nil {
		m.attempts.WithLabelValues(strategy, result).Inc()
	}
}

func (m *Metrics) sharedWait() {
	if m != nil {
		m.shared.Inc()
	}
}

func (m *Metrics) cached(size int, evicted bool) {
	if m == nil {
		return
	}
	if evicted {
		m.evictions.Inc()
	}
	m.cacheSize.Set(float64(size))
}

// Resolutions exposes the outcome counter.
func (m *Metrics) Resolutions() *prometheus.CounterVec { return m.resolutions }

// Attempts exposes the per-strategy attempt counter.
func (m *Metrics) Attempts() *prometheus.CounterVec { return m.attempts }
