package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Advisor Prometheus metrics.
var (
	AdvisorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laborconnect",
			Name:      "advisor_requests_total",
			Help:      "Total number of smart match provider calls by outcome",
		},
		[]string{"provider", "model", "outcome"},
	)

	AdvisorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "laborconnect",
			Name:      "advisor_request_duration_seconds",
			Help:      "Smart match provider call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	SelectionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laborconnect",
			Name:      "selection_transitions_total",
			Help:      "Selection controller transitions by kind",
		},
		[]string{"transition"},
	)
)

func init() {
	prometheus.MustRegister(AdvisorRequestsTotal)
	prometheus.MustRegister(AdvisorRequestDuration)
	prometheus.MustRegister(SelectionTransitionsTotal)
}
