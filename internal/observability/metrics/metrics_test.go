package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)
	m.ObserveTurn("completion")
	m.ObserveTurn("completion")
	m.ObserveTurn("fallback")
	m.ObserveCompletion("openai", "ok", 250*time.Millisecond)
	m.ObserveBooking("demo", "confirmed")
	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.turnsTotal.WithLabelValues("completion")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.turnsTotal.WithLabelValues("fallback")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.completionTotal.WithLabelValues("openai", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.bookingTotal.WithLabelValues("demo", "confirmed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.sessionsStarted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sessionsEnded))

	families, err := reg.Gather()
	require.NoError(t, err)
	var latency *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "marketier_assistant_completion_latency_seconds" {
			latency = f
		}
	}
	require.NotNil(t, latency)
	require.Len(t, latency.GetMetric(), 1)
	assert.Equal(t, uint64(1), latency.GetMetric()[0].GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.25, latency.GetMetric()[0].GetHistogram().GetSampleSum(), 0.0001)
}

func TestConversationMetricsDefaultRegistry(t *testing.T) {
	m := NewConversationMetrics(nil)
	m.ObserveTurn("booking")
}

func TestConversationMetricsNilSafe(t *testing.T) {
	var m *ConversationMetrics
	m.ObserveTurn("trigger")
	m.ObserveCompletion("gemini", "error", time.Second)
	m.ObserveBooking("calendly", "failed")
	m.SessionStarted()
	m.SessionEnded()
}
