// Package metrics holds the process-wide Prometheus collectors for payment
// traffic. HTTP-level metrics live in the request middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	stkPushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stk_pushes_total",
			Help: "Total number of STK push submissions by outcome",
		},
		[]string{"outcome"},
	)

	callbacksProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbacks_processed_total",
			Help: "Total number of provider confirmations processed by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(stkPushesTotal)
	prometheus.MustRegister(callbacksProcessedTotal)
}

// Push outcomes.
const (
	PushAccepted    = "accepted"
	PushRejected    = "rejected"
	PushAuthFailure = "auth_failure"
	PushError       = "error"
)

// Callback results besides the lowercase terminal status labels.
const (
	CallbackUnmatched = "unmatched"
	CallbackDuplicate = "duplicate"
	CallbackError     = "error"
)

func RecordStkPush(outcome string) {
	stkPushesTotal.WithLabelValues(outcome).Inc()
}

func RecordCallbackProcessed(result string) {
	callbacksProcessedTotal.WithLabelValues(result).Inc()
}
