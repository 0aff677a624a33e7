// Package metrics exposes Prometheus instrumentation for the receptionist.
//
// Each Metrics owns a private registry so tests and multiple engines in one
// process never collide on the default registerer.
//
// Usage:
//
//	m := metrics.New()
//	m.TurnHandled("main_menu", "booking", time.Since(start))
//	http.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "frontdesk"

// Metrics holds every collector the engine and gateway update.
type Metrics struct {
	registry *prometheus.Registry

	// Turns counts handled turns.
	// Labels: state (state the turn arrived in), intent
	Turns *prometheus.CounterVec

	// TurnDuration measures end-to-end turn latency in seconds.
	TurnDuration prometheus.Histogram

	// IntentOutcomes counts cascade step results.
	// Labels: strategy (keypad|llm|keywords|services|default), outcome (matched|no_match|unavailable)
	IntentOutcomes *prometheus.CounterVec

	// ProviderRequests counts settled throttle jobs.
	// Labels: status (ok|rate_limited|unavailable|timeout|canceled|overloaded)
	ProviderRequests *prometheus.CounterVec

	// ProviderWait measures time from enqueue to dispatch in seconds.
	ProviderWait prometheus.Histogram

	// Bookings counts completed bookings. Labels: service, language
	Bookings *prometheus.CounterVec

	// SessionsEnded counts ended sessions. Labels: reason (goodbye|pricing|complete|expired|fatal)
	SessionsEnded *prometheus.CounterVec

	// ActiveSessions is the size of the session table.
	ActiveSessions prometheus.Gauge

	// Escalations counts unclear-cap escalations to the main menu.
	Escalations prometheus.Counter

	// Fatal counts invariant violations degraded to the technical phrase.
	Fatal prometheus.Counter
}

// New creates a Metrics with its own registry, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns handled, by arrival state and resolved intent",
		}, []string{"state", "intent"}),
		TurnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn handling latency",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}),
		IntentOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_strategy_results_total",
			Help:      "Intent cascade step results",
		}, []string{"strategy", "outcome"}),
		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Language model requests settled by the throttle, by status",
		}, []string{"status"}),
		ProviderWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_queue_wait_seconds",
			Help:      "Time language model requests spent queued before dispatch",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		Bookings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Completed bookings",
		}, []string{"service", "language"}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Ended sessions by reason",
		}, []string{"reason"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently in the session table",
		}),
		Escalations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unclear_escalations_total",
			Help:      "Escalations to the main menu after repeated unclear turns",
		}),
		Fatal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fatal_transitions_total",
			Help:      "Dialog invariant violations answered with the technical difficulty phrase",
		}),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TurnHandled records one turn. Nil receivers are no-ops so components can
// run without instrumentation.
func (m *Metrics) TurnHandled(state, intent string, d time.Duration) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(state, intent).Inc()
	m.TurnDuration.Observe(d.Seconds())
}

// IntentResult records one cascade step outcome.
func (m *Metrics) IntentResult(strategy, outcome string) {
	if m == nil {
		return
	}
	m.IntentOutcomes.WithLabelValues(strategy, outcome).Inc()
}

// ProviderResult records one settled throttle job. dispatched is zero when
// the job never ran.
func (m *Metrics) ProviderResult(status string, enqueued, dispatched time.Time) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(status).Inc()
	if !dispatched.IsZero() && !enqueued.IsZero() {
		m.ProviderWait.Observe(dispatched.Sub(enqueued).Seconds())
	}
}

// BookingCompleted records one completed booking.
func (m *Metrics) BookingCompleted(service, language string) {
	if m == nil {
		return
	}
	m.Bookings.WithLabelValues(service, language).Inc()
}

// SessionEnded records a session leaving the table.
func (m *Metrics) SessionEnded(reason string) {
	if m == nil {
		return
	}
	m.SessionsEnded.WithLabelValues(reason).Inc()
}

// SetActiveSessions sets the session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// Escalated records an unclear-cap escalation.
func (m *Metrics) Escalated() {
	if m == nil {
		return
	}
	m.Escalations.Inc()
}

// FatalTransition records a degraded invariant violation.
func (m *Metrics) FatalTransition() {
	if m == nil {
		return
	}
	m.Fatal.Inc()
}
