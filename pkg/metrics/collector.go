package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eyeobad/aurora-pay/internal/appstate"
)

var (
	walletActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_actions_total",
			Help: "Total number of wallet actions labeled by action and status",
		},
		[]string{"action", "status"},
	)
	syncDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_operation_duration_seconds",
			Help:    "Duration of synchronizer operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	gateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_decisions_total",
			Help: "Total number of authorization gate decisions by outcome",
		},
		[]string{"outcome"},
	)
	stateActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_actions_total",
			Help: "Total number of reducer actions dispatched",
		},
		[]string{"action"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
)

func init() {
	appstate.RegisterActionRecorder(RecordStateAction)
}

// RecordWalletAction increments the action counter.
func RecordWalletAction(action, status string) {
	walletActionsTotal.WithLabelValues(action, status).Inc()
}

// TimeSyncOperation returns a stop function observing the operation's
// duration when called.
func TimeSyncOperation(operation string) func() {
	start := time.Now()
	return func() {
		syncDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RecordGateDecision counts one authorization gate outcome.
func RecordGateDecision(outcome string) {
	gateDecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordStateAction counts one dispatched reducer action.
func RecordStateAction(action string) {
	stateActionsTotal.WithLabelValues(action).Inc()
}

// RecordError counts one typed error occurrence.
func RecordError(code, severity string) {
	errorsTotal.WithLabelValues(code, severity).Inc()
}
