// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger transport metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec
	RPCRetries     *prometheus.CounterVec

	// Gateway metrics
	TransactionsSent     *prometheus.CounterVec
	TransactionsReverted *prometheus.CounterVec

	// Aggregation metrics
	RosterBuilds        prometheus.Counter
	RosterDegraded      prometheus.Counter
	SnapshotBuildErrors prometheus.Counter
	ActivityBuilds      prometheus.Counter
	ActivitySkipped     *prometheus.CounterVec
	ProfileCacheResults *prometheus.CounterVec

	// Ingestion metrics
	LogsIngested     *prometheus.CounterVec
	LogDecodeErrors  prometheus.Counter
	HighestBlockSeen prometheus.Gauge
	IngestionLatency prometheus.Histogram
	VoteRefreshes    *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	UptimeSeconds           prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "survive_arena"
	}

	return &Metrics{
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rpc_call_duration_seconds",
			Help:      "JSON-RPC call latency including retries",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rpc_call_errors_total",
			Help:      "JSON-RPC calls that returned an error",
		}, []string{"method"}),
		RPCRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rpc_retries_total",
			Help:      "Retry attempts of transient JSON-RPC failures",
		}, []string{"method"}),

		TransactionsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "transactions_sent_total",
			Help:      "Signed transactions submitted, by contract method",
		}, []string{"method"}),
		TransactionsReverted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "transactions_reverted_total",
			Help:      "Transactions mined with a failed status, by contract method",
		}, []string{"method"}),

		RosterBuilds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "roster_builds_total",
			Help:      "Roster builds",
		}),
		RosterDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "roster_degraded_records_total",
			Help:      "Roster records substituted after a failed sub-fetch",
		}),
		SnapshotBuildErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "snapshot_build_errors_total",
			Help:      "Snapshot builds that failed on the raw pool read",
		}),
		ActivityBuilds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "feed_builds_total",
			Help:      "Activity feed builds",
		}),
		ActivitySkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "skipped_reads_total",
			Help:      "Per-pool or per-address reads skipped after failure",
		}, []string{"scope"}),
		ProfileCacheResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "profile",
			Name:      "cache_results_total",
			Help:      "Profile cache lookups by result (hit, miss, error)",
		}, []string{"result"}),

		LogsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "logs_ingested_total",
			Help:      "Decoded contract logs stored, by event name",
		}, []string{"event"}),
		LogDecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "log_decode_errors_total",
			Help:      "Contract logs that could not be decoded",
		}),
		HighestBlockSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "highest_block_seen",
			Help:      "Highest block number processed",
		}),
		IngestionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "batch_duration_seconds",
			Help:      "Time to decode and store one batch of logs",
			Buckets:   prometheus.DefBuckets,
		}),
		VoteRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "vote_refreshes_total",
			Help:      "Vote refresh cycles by trigger (tick, event) and outcome",
		}, []string{"trigger", "outcome"}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status class",
		}, []string{"route", "status"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query latency",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulIngestion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of the last stored log batch",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCCall records latency and outcome of one JSON-RPC call.
func RecordRPCCall(method string, seconds float64, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordRPCRetry increments the retry counter for method.
func RecordRPCRetry(method string) {
	DefaultMetrics.RPCRetries.WithLabelValues(method).Inc()
}

// RecordTransaction records a submitted transaction and whether it reverted.
func RecordTransaction(method string, reverted bool) {
	DefaultMetrics.TransactionsSent.WithLabelValues(method).Inc()
	if reverted {
		DefaultMetrics.TransactionsReverted.WithLabelValues(method).Inc()
	}
}

// RecordRoster records one roster build and its degraded record count.
func RecordRoster(degraded int) {
	DefaultMetrics.RosterBuilds.Inc()
	DefaultMetrics.RosterDegraded.Add(float64(degraded))
}

// RecordSnapshotError increments the failed snapshot counter.
func RecordSnapshotError() {
	DefaultMetrics.SnapshotBuildErrors.Inc()
}

// RecordActivityBuild increments the activity feed build counter.
func RecordActivityBuild() {
	DefaultMetrics.ActivityBuilds.Inc()
}

// RecordActivitySkip records a skipped read; scope is "pool" or "address".
func RecordActivitySkip(scope string) {
	DefaultMetrics.ActivitySkipped.WithLabelValues(scope).Inc()
}

// RecordProfileCache records a profile cache lookup result.
func RecordProfileCache(result string) {
	DefaultMetrics.ProfileCacheResults.WithLabelValues(result).Inc()
}

// RecordLogIngested increments the stored log counter for an event.
func RecordLogIngested(event string) {
	DefaultMetrics.LogsIngested.WithLabelValues(event).Inc()
}

// RecordDecodeError increments the decode error counter.
func RecordDecodeError() {
	DefaultMetrics.LogDecodeErrors.Inc()
}

// RecordIngestBatch records a stored batch and the highest block it covered.
func RecordIngestBatch(seconds float64, highestBlock uint64, unixNow int64) {
	DefaultMetrics.IngestionLatency.Observe(seconds)
	DefaultMetrics.HighestBlockSeen.Set(float64(highestBlock))
	DefaultMetrics.LastSuccessfulIngestion.Set(float64(unixNow))
}

// RecordVoteRefresh records one refresher cycle.
func RecordVoteRefresh(trigger, outcome string) {
	DefaultMetrics.VoteRefreshes.WithLabelValues(trigger, outcome).Inc()
}

// RecordHTTPRequest records an API request by route pattern and status class.
func RecordHTTPRequest(route, status string) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
