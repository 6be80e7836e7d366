package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConversationMetrics exposes counters/histograms for assistant turns.
type ConversationMetrics struct {
	turnsTotal        *prometheus.CounterVec
	completionTotal   *prometheus.CounterVec
	completionLatency *prometheus.HistogramVec
	bookingTotal      *prometheus.CounterVec
	sessionsStarted   prometheus.Counter
	sessionsEnded     prometheus.Counter
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketier",
			Subsystem: "assistant",
			Name:      "turns_total",
			Help:      "Total user turns by the route that answered them",
		}, []string{"route"}),
		completionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketier",
			Subsystem: "assistant",
			Name:      "completion_total",
			Help:      "Remote completion calls by provider and outcome",
		}, []string{"provider", "outcome"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketier",
			Subsystem: "assistant",
			Name:      "completion_latency_seconds",
			Help:      "Latency of remote completion calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketier",
			Subsystem: "assistant",
			Name:      "booking_total",
			Help:      "Booking flow outcomes by provider",
		}, []string{"provider", "outcome"}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketier",
			Subsystem: "assistant",
			Name:      "sessions_started_total",
			Help:      "Chat sessions started",
		}),
		// Most sessions simply expire; only explicit ends are counted here.
		sessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketier",
			Subsystem: "assistant",
			Name:      "sessions_ended_total",
			Help:      "Chat sessions ended explicitly by the widget",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.completionTotal, m.completionLatency, m.bookingTotal, m.sessionsStarted, m.sessionsEnded)
	return m
}

func (m *ConversationMetrics) ObserveTurn(route string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(route).Inc()
}

func (m *ConversationMetrics) ObserveCompletion(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.completionTotal.WithLabelValues(provider, outcome).Inc()
	m.completionLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *ConversationMetrics) ObserveBooking(provider, outcome string) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(provider, outcome).Inc()
}

func (m *ConversationMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *ConversationMetrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessionsEnded.Inc()
}
