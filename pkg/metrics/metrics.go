package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tree lifecycle metrics
	TreesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "whitelist_trees_total",
			Help: "Total number of roots-table rows by status",
		},
		[]string{"status"},
	)

	TreesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "whitelist_trees_created_total",
			Help: "Total number of CreateTree calls that reached COMPLETED",
		},
	)

	TreesFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "whitelist_trees_failed_total",
			Help: "Total number of CreateTree/DeleteTree calls that ended in FAILED",
		},
	)

	TreesDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "whitelist_trees_deleted_total",
			Help: "Total number of DeleteTree calls that removed the root row",
		},
	)

	ConditionalCheckFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelist_conditional_check_failures_total",
			Help: "Total number of lost conditional-write races, by transition",
		},
		[]string{"transition"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelist_api_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whitelist_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Merkle builder metrics
	TreeBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "whitelist_tree_build_duration_seconds",
			Help:    "Time taken to parse a CSV and build its Merkle tree",
			Buckets: prometheus.DefBuckets,
		},
	)

	TreeBuildRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "whitelist_tree_build_rows",
			Help:    "Number of whitelist rows in a built tree",
			Buckets: []float64{1, 10, 100, 1000, 10000, 50000, 100000},
		},
	)

	// KV batch metrics
	BatchRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelist_kv_batch_retries_total",
			Help: "Total number of unprocessed-items retry attempts, by table",
		},
		[]string{"table"},
	)

	BatchPartialFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelist_kv_batch_partial_failures_total",
			Help: "Total number of batch writes that exhausted retries with items unprocessed",
		},
		[]string{"table"},
	)

	// Read path metrics
	ProofLookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "whitelist_proof_lookup_duration_seconds",
			Help:    "Time taken to serve a getMerkleProof call",
			Buckets: prometheus.DefBuckets,
		},
	)

	RootScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "whitelist_root_scan_duration_seconds",
			Help:    "Time taken to serve a getMerkleRoots/getMerkleTrees scan page",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(TreesTotal)
	prometheus.MustRegister(TreesCreatedTotal)
	prometheus.MustRegister(TreesFailedTotal)
	prometheus.MustRegister(TreesDeletedTotal)
	prometheus.MustRegister(ConditionalCheckFailuresTotal)

	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)

	prometheus.MustRegister(TreeBuildDuration)
	prometheus.MustRegister(TreeBuildRows)

	prometheus.MustRegister(BatchRetriesTotal)
	prometheus.MustRegister(BatchPartialFailuresTotal)

	prometheus.MustRegister(ProofLookupDuration)
	prometheus.MustRegister(RootScanDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
