/*
Package metrics provides Prometheus metrics collection and exposition
for the whitelist-to-Merkle-tree service.

The metrics package defines and registers every service metric using
the Prometheus client library, providing observability into tree
lifecycle transitions, batch-write health, and read-path latency.
Metrics are exposed via an HTTP endpoint for scraping by Prometheus
servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (trees by status)    │          │
	│  │  Counter: Monotonic increases (created)     │          │
	│  │  Histogram: Distributions (build latency)   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Lifecycle: Trees by status, transitions    │          │
	│  │  API: Request count, duration               │          │
	│  │  Build: Merkle construction latency, rows   │          │
	│  │  Batch: Retry count, partial-batch failures │          │
	│  │  Read path: Proof lookup, root scan latency │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init
  - Thread-safe for concurrent updates

Collector:
  - Periodically scans the roots table (every 15s)
  - Republishes per-status row counts to TreesTotal
  - Runs as a background goroutine, stopped via Stop()

Timer Helper:
  - Convenience wrapper for timing operations
  - Start timer, observe duration to histogram
  - Supports label values for histogram vectors

# Metrics Catalog

Tree Lifecycle Metrics:

whitelist_trees_total{status}:
  - Type: Gauge
  - Description: Current roots-table row count by status
  - Labels: status (CREATING/COMPLETED/FAILED/DELETING)
  - Fed by: Collector's periodic scan

whitelist_trees_created_total:
  - Type: Counter
  - Description: Total CreateTree calls that reached COMPLETED

whitelist_trees_failed_total:
  - Type: Counter
  - Description: Total CreateTree/DeleteTree calls that ended FAILED

whitelist_trees_deleted_total:
  - Type: Counter
  - Description: Total DeleteTree calls that removed the root row

whitelist_conditional_check_failures_total{transition}:
  - Type: Counter
  - Description: Total lost conditional-write races, by transition name

API Metrics:

whitelist_api_requests_total{route, status}:
  - Type: Counter
  - Description: Total API requests by route and status

whitelist_api_request_duration_seconds{route}:
  - Type: Histogram
  - Description: API request duration in seconds

Merkle Build Metrics:

whitelist_tree_build_duration_seconds:
  - Type: Histogram
  - Description: Time to parse a CSV and build its Merkle tree

whitelist_tree_build_rows:
  - Type: Histogram
  - Description: Number of whitelist rows in a built tree

Batch Metrics:

whitelist_kv_batch_retries_total{table}:
  - Type: Counter
  - Description: Total unprocessed-items retry attempts, by table

whitelist_kv_batch_partial_failures_total{table}:
  - Type: Counter
  - Description: Total batch writes that exhausted retries with items
    still unprocessed

Read Path Metrics:

whitelist_proof_lookup_duration_seconds:
  - Type: Histogram
  - Description: Time to serve a getMerkleProof call

whitelist_root_scan_duration_seconds:
  - Type: Histogram
  - Description: Time to serve a getMerkleRoots/getMerkleTrees page

# Usage

Updating Gauge Metrics:

	import "github.com/wtreehq/merkletree/pkg/metrics"

	metrics.TreesTotal.WithLabelValues("COMPLETED").Set(42)

Updating Counter Metrics:

	metrics.TreesCreatedTotal.Inc()
	metrics.BatchRetriesTotal.WithLabelValues("roots").Inc()

Recording Histogram Observations:

	timer := metrics.NewTimer()
	root, proofs, err := merkle.Build(name, entries)
	timer.ObserveDuration(metrics.TreeBuildDuration)
	metrics.TreeBuildRows.Observe(float64(len(entries)))

Using Timer with Labels:

	timer := metrics.NewTimer()
	// ... handle request ...
	timer.ObserveDurationVec(metrics.APIRequestDuration, "uploadWhitelist")

Running the Collector:

	collector := metrics.NewCollector(whitelistService)
	collector.Start()
	defer collector.Stop()

	http.Handle("/metrics", metrics.Handler())
	http.ListenAndServe(":9090", nil)

# Integration Points

This package integrates with:

  - pkg/treelifecycle: Increments lifecycle counters at transition points
  - pkg/kvstore: Records batch retry and partial-failure counts
  - pkg/treelifecycle (around merkle.ParseCSV/Build): Times CSV parsing
    and tree construction, records row counts
  - pkg/whitelist: Times proof lookups and root scans
  - Prometheus: Scrapes /metrics endpoint

# Design Patterns

Package Init Registration:
  - All metrics registered in init() function
  - MustRegister panics on duplicate registration

Label Discipline:
  - Use WithLabelValues for cardinality-bounded labels
  - Never use whitelist name or address as a label (unbounded
    cardinality) — those belong in log fields, not metric labels

Timer Pattern:
  - Create timer at operation start
  - Call ObserveDuration once the operation completes
  - Supports both simple and vector histograms

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
  - Histogram best practices: https://prometheus.io/docs/practices/histograms/
*/
package metrics
