// Package metrics exposes the Prometheus collectors of the quiz backend.
//
// Collectors are registered on the default registry at init and served by
// promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ViolationsTotal counts recorded security violations by kind.
	ViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_violations_total",
			Help: "Total number of recorded quiz security violations",
		},
		[]string{"kind"},
	)

	// DisqualificationsTotal counts sessions ended by the strike policy.
	DisqualificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_disqualifications_total",
			Help: "Total number of disqualified quiz sessions",
		},
	)

	// FinalizedTotal counts finalized sessions by finish reason.
	FinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_finalized_total",
			Help: "Total number of finalized quiz sessions",
		},
		[]string{"reason"},
	)

	// ActiveStreams tracks open quiz WebSocket connections.
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_active_streams",
			Help: "Number of open quiz streams",
		},
	)

	// AIRequestsTotal counts generative AI calls by operation and outcome
	// (success, failure, rate_limited, rejected).
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of generative AI requests",
		},
		[]string{"operation", "outcome"},
	)

	// AIBreakerState is 0 closed, 1 half-open, 2 open.
	AIBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ai_circuit_breaker_state",
			Help: "Circuit breaker state of the generative AI backend",
		},
		[]string{"name"},
	)

	// PersistedViolationsTotal counts audit rows written by the violation worker.
	PersistedViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_violations_persisted_total",
			Help: "Violation audit rows handled by the persistence worker",
		},
		[]string{"result"},
	)
)

// RecordViolation counts one violation of the given kind.
func RecordViolation(kind string) {
	ViolationsTotal.WithLabelValues(kind).Inc()
}

// RecordFinalize counts one finalized session.
func RecordFinalize(reason string, disqualified bool) {
	FinalizedTotal.WithLabelValues(reason).Inc()
	if disqualified {
		DisqualificationsTotal.Inc()
	}
}

// RecordAIRequest counts one AI call.
func RecordAIRequest(operation, outcome string) {
	AIRequestsTotal.WithLabelValues(operation, outcome).Inc()
}
