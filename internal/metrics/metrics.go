package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearcrowd_calls_total",
			Help: "Total number of ledger calls by method and outcome",
		},
		[]string{"method", "outcome"}, // outcome: applied, rejected, failed
	)

	CallDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nearcrowd_call_duration_seconds",
			Help:    "Ledger call duration in seconds, gate wait included",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method"},
	)

	SnapshotSaveConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nearcrowd_snapshot_save_conflicts_total",
			Help: "Total number of optimistic-lock conflicts saving the state snapshot",
		},
	)
)

const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)
