package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service-wide Prometheus metrics. Upstream clients keep
// their own latency histograms in internal/upstream.
type Metrics struct {
	ActiveViews      *prometheus.GaugeVec
	StaleResults     *prometheus.CounterVec
	ViewsEvicted     *prometheus.CounterVec
	SessionEvents    *prometheus.CounterVec
	ChatTurnDuration prometheus.Histogram
}

// New creates and registers all Prometheus metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on reg; tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ActiveViews: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worldfolio_active_views",
			Help: "Number of live server-side views",
		}, []string{"view"}),
		StaleResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worldfolio_stale_results_total",
			Help: "Fetch results discarded because a newer request superseded them",
		}, []string{"view"}),
		ViewsEvicted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worldfolio_views_evicted_total",
			Help: "Views closed by the idle sweeper",
		}, []string{"view"}),
		SessionEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worldfolio_session_events_total",
			Help: "Identity provider events applied to session gates",
		}, []string{"state"}),
		ChatTurnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worldfolio_chat_turn_duration_seconds",
			Help:    "Time from chat question to answer",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 16},
		}),
	}
}

// The helpers below are nil-safe so components can run without metrics.

func (m *Metrics) ViewOpened(view string) {
	if m == nil {
		return
	}
	m.ActiveViews.WithLabelValues(view).Inc()
}

func (m *Metrics) ViewClosed(view string) {
	if m == nil {
		return
	}
	m.ActiveViews.WithLabelValues(view).Dec()
}

func (m *Metrics) ViewEvicted(view string) {
	if m == nil {
		return
	}
	m.ViewsEvicted.WithLabelValues(view).Inc()
}

func (m *Metrics) StaleResult(view string) {
	if m == nil {
		return
	}
	m.StaleResults.WithLabelValues(view).Inc()
}

func (m *Metrics) SessionEvent(signedIn bool) {
	if m == nil {
		return
	}
	state := "signed_out"
	if signedIn {
		state = "signed_in"
	}
	m.SessionEvents.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveChatTurn(d time.Duration) {
	if m == nil {
		return
	}
	m.ChatTurnDuration.Observe(d.Seconds())
}
