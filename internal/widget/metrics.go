package widget

import "github.com/prometheus/client_golang/prometheus"

// Dispatch outcomes used as the "outcome" label.
const (
	outcomeDelivered   = "delivered"
	outcomeFailed      = "failed"
	outcomeStartFailed = "start_failed"
)

var (
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_dispatch_total",
			Help: "User messages dispatched, by final outcome.",
		},
		[]string{"outcome"},
	)

	recoveriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "concierge_session_recoveries_total",
			Help: "Sessions re-created after the assistant rejected the current one.",
		},
	)

	suggestionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "concierge_suggestion_failures_total",
			Help: "Local room lookups that failed and contributed no cards.",
		},
	)
)

func init() {
	prometheus.MustRegister(dispatchTotal, recoveriesTotal, suggestionFailures)
}
