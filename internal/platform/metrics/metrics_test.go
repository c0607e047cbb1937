package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.ViewOpened("discovery")
	m.ViewOpened("discovery")
	m.ViewClosed("discovery")
	m.StaleResult("details")
	m.SessionEvent(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveViews.WithLabelValues("discovery")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResults.WithLabelValues("details")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionEvents.WithLabelValues("signed_out")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ViewOpened("discovery")
		m.StaleResult("discovery")
		m.SessionEvent(true)
		m.ObserveChatTurn(0)
	})
}
