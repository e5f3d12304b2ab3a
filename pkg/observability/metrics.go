// Package observability provides Prometheus metrics for the mindshare tracker
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// FetchAttemptsTotal tracks upstream fetch attempts per source
	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindshare_fetch_attempts_total",
			Help: "Total number of upstream fetch attempts",
		},
		[]string{"source", "status"}, // status: success, failed
	)

	// CacheRequestsTotal tracks ephemeral cache lookups
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindshare_cache_requests_total",
			Help: "Total number of leaderboard cache lookups",
		},
		[]string{"result"}, // result: hit, miss
	)

	// SnapshotsSavedTotal tracks persisted snapshots per window
	SnapshotsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindshare_snapshots_saved_total",
			Help: "Total number of snapshots persisted",
		},
		[]string{"window"},
	)

	// TriggerRunsTotal tracks coordinator trigger executions
	TriggerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindshare_trigger_runs_total",
			Help: "Total number of trigger runs",
		},
		[]string{"trigger", "status"}, // status: success, failed, rejected
	)

	// TriggerDuration measures trigger run duration in seconds
	TriggerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindshare_trigger_duration_seconds",
			Help:    "Trigger run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
		[]string{"trigger"},
	)

	// RowsPrunedTotal tracks rows deleted by retention sweeps
	RowsPrunedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindshare_rows_pruned_total",
			Help: "Total number of rows deleted by retention pruning",
		},
		[]string{"kind"}, // kind: snapshot, entry
	)
)

// RecordFetchAttempt records the outcome of one upstream source attempt.
func RecordFetchAttempt(source, status string) {
	FetchAttemptsTotal.WithLabelValues(source, status).Inc()
}

// RecordCacheRequest records a cache lookup result.
func RecordCacheRequest(result string) {
	CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordSnapshotSaved records a persisted snapshot.
func RecordSnapshotSaved(window string) {
	SnapshotsSavedTotal.WithLabelValues(window).Inc()
}

// RecordTriggerRun records a trigger run outcome.
func RecordTriggerRun(trigger, status string) {
	TriggerRunsTotal.WithLabelValues(trigger, status).Inc()
}

// ObserveTriggerDuration records how long a trigger run took.
func ObserveTriggerDuration(trigger string, seconds float64) {
	TriggerDuration.WithLabelValues(trigger).Observe(seconds)
}

// RecordRowsPruned records rows removed by a retention sweep.
func RecordRowsPruned(kind string, count int64) {
	if count <= 0 {
		return
	}
	RowsPrunedTotal.WithLabelValues(kind).Add(float64(count))
}
