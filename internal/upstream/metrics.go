package upstream

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records provider call latency by outcome.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	failures        *prometheus.CounterVec
}

// NewMetrics registers the upstream metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worldfolio_upstream_request_duration_seconds",
			Help:    "Latency of calls to external providers",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"provider", "operation"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worldfolio_upstream_failures_total",
			Help: "Failed calls to external providers by category",
		}, []string{"provider", "category"}),
	}
}

// Observe records one provider call. Safe on a nil receiver.
func (m *Metrics) Observe(provider, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
	if err != nil {
		m.failures.WithLabelValues(provider, string(CategoryOf(err))).Inc()
	}
}
