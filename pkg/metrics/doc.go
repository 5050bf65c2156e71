/*
Package metrics provides Prometheus metrics collection and exposition
for Folio.

The metrics package defines and registers all engine metrics using the
Prometheus client library: cache occupancy and hit rate, commit
pipeline outcomes and latency, pool checkout/overflow/error counts,
wire-level error counts by kind, and history read/write activity.
Metrics are exposed via an HTTP handler for scraping.

# Metrics Catalog

Cache:

	folio_cache_records_total     Gauge    records currently cached
	folio_cache_hits_total        Counter  reads answered from cache
	folio_cache_misses_total      Counter  reads for an absent id

Commit pipeline:

	folio_commits_total{outcome}       CounterVec  ok, concurrent_change, commit_error, transport_error
	folio_commit_duration_seconds      Histogram   prepare+persist+apply time
	folio_commit_batch_size            Histogram   diffs per batch
	folio_version_counter              Gauge       monotonic commit version

Wire / pool:

	folio_pool_checkouts_total     Counter     checkouts from the pool
	folio_pool_overflow_total      Counter     checkouts served by overflow clients
	folio_pool_errors_total        Counter     clients replaced after failing in use or a health check
	folio_pool_size                Gauge       live clients tracked by the pool
	folio_wire_errors_total{kind}  CounterVec  transport, protocol, remote

History:

	folio_history_writes_total           Counter    items written
	folio_history_reads_total            Counter    reads, with or without a span
	folio_history_write_duration_seconds Histogram  write-batch persist time

Startup:

	folio_startup_sync_duration_seconds  Histogram  cache rebuild time at startup
	folio_startup_sync_dropped_total     Counter    records dropped on decode failure

# Usage

	import "github.com/foliodb/folio/pkg/metrics"

	metrics.CacheRecordsTotal.Set(float64(len(cache)))
	metrics.CommitsTotal.WithLabelValues("ok").Inc()

	timer := metrics.NewTimer()
	// ... prepare, persist, apply ...
	timer.ObserveDuration(metrics.CommitDuration)

	http.Handle("/metrics", metrics.Handler())

# Design Patterns

Package Init Registration:
  - All metrics registered in init() via MustRegister, so they are
    present before any caller touches the package.

Timer Pattern:
  - NewTimer() captures a start time; ObserveDuration/ObserveDurationVec
    records elapsed time to a histogram at the call site.

# See Also

  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
