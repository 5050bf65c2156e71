package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cache metrics
	CacheRecordsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_cache_records_total",
			Help: "Number of records currently held in the in-memory cache",
		},
	)

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_cache_hits_total",
			Help: "Total number of reads answered from the cache",
		},
	)

	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_cache_misses_total",
			Help: "Total number of reads for an id absent from the cache",
		},
	)

	// Commit pipeline metrics
	CommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_commits_total",
			Help: "Total number of commit batches by outcome",
		},
		[]string{"outcome"}, // ok, concurrent_change, commit_error, transport_error
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_commit_duration_seconds",
			Help:    "Time taken to prepare, persist, and apply a commit batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommitBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_commit_batch_size",
			Help:    "Number of diffs in a single commit batch",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
		},
	)

	VersionCounter = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_version_counter",
			Help: "Current value of the monotonic commit version counter",
		},
	)

	// Wire client / pool metrics
	PoolCheckoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_pool_checkouts_total",
			Help: "Total number of connection checkouts from the pool",
		},
	)

	PoolOverflowTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_pool_overflow_total",
			Help: "Total number of checkouts served by an overflow (non-pooled) client",
		},
	)

	PoolErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_pool_errors_total",
			Help: "Total number of pooled clients that failed (in use or on a health check) and were replaced",
		},
	)

	PoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_pool_size",
			Help: "Current number of live clients tracked by the pool",
		},
	)

	WireErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_wire_errors_total",
			Help: "Total number of wire-level errors by kind",
		},
		[]string{"kind"}, // transport, protocol, remote
	)

	// History store metrics
	HistoryWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_history_writes_total",
			Help: "Total number of history items written",
		},
	)

	HistoryReadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_history_reads_total",
			Help: "Total number of history reads",
		},
	)

	HistoryWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_history_write_duration_seconds",
			Help:    "Time taken to persist a history write batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Startup sync metrics
	StartupSyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_startup_sync_duration_seconds",
			Help:    "Time taken to rebuild the cache from storage at startup",
			Buckets: prometheus.DefBuckets,
		},
	)

	StartupSyncDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_startup_sync_dropped_total",
			Help: "Total number of records dropped from the cache during startup due to decode failures",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CacheRecordsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		CommitsTotal,
		CommitDuration,
		CommitBatchSize,
		VersionCounter,
		PoolCheckoutsTotal,
		PoolOverflowTotal,
		PoolErrorsTotal,
		PoolSize,
		WireErrorsTotal,
		HistoryWritesTotal,
		HistoryReadsTotal,
		HistoryWriteDuration,
		StartupSyncDuration,
		StartupSyncDroppedTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
