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
	// Scan metrics
	CandidatesDiscovered prometheus.Counter
	TokensEvaluated      prometheus.Counter
	SignalsEmitted       prometheus.Counter
	TokensSkipped        *prometheus.CounterVec

	// Upstream metrics
	UpstreamRequestLatency *prometheus.HistogramVec
	UpstreamErrors         *prometheus.CounterVec
	HistoryFetchLatency    prometheus.Histogram

	// Cache metrics
	HistoryCacheHits   prometheus.Counter
	HistoryCacheMisses prometheus.Counter

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Feed metrics
	FeedClients prometheus.Gauge

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "objkt_signal_lab"
	}

	return &Metrics{
		// Scan metrics
		CandidatesDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "candidates_discovered_total",
			Help:      "Total number of candidate tokens returned by discovery",
		}),
		TokensEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tokens_evaluated_total",
			Help:      "Total number of token histories evaluated",
		}),
		SignalsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "signals_emitted_total",
			Help:      "Total number of available token signals emitted",
		}),
		TokensSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tokens_skipped_total",
			Help:      "Total number of tokens skipped by reason",
		}, []string{"reason"}),

		// Upstream metrics
		UpstreamRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "objkt",
			Name:      "request_latency_seconds",
			Help:      "objkt GraphQL request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "objkt",
			Name:      "errors_total",
			Help:      "Total number of failed objkt GraphQL requests",
		}, []string{"operation"}),
		HistoryFetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "history_fetch_latency_seconds",
			Help:      "Per-token history fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Cache metrics
		HistoryCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "history_hits_total",
			Help:      "Total number of token history cache hits",
		}),
		HistoryCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "history_misses_total",
			Help:      "Total number of token history cache misses",
		}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"status"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		FeedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "clients",
			Help:      "Number of connected signal feed clients",
		}),

		// Health metrics
		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCandidatesDiscovered adds n to the discovered candidates counter.
func RecordCandidatesDiscovered(n int) {
	DefaultMetrics.CandidatesDiscovered.Add(float64(n))
}

// RecordTokenEvaluated increments the evaluated tokens counter.
func RecordTokenEvaluated() {
	DefaultMetrics.TokensEvaluated.Inc()
}

// RecordSignalEmitted increments the emitted signals counter.
func RecordSignalEmitted() {
	DefaultMetrics.SignalsEmitted.Inc()
}

// RecordTokenSkipped records a skipped token.
func RecordTokenSkipped(reason string) {
	DefaultMetrics.TokensSkipped.WithLabelValues(reason).Inc()
}

// RecordHistoryFetch records per-token fetch latency.
func RecordHistoryFetch(seconds float64) {
	DefaultMetrics.HistoryFetchLatency.Observe(seconds)
}

// RecordUpstreamRequest records an objkt request and its outcome.
func RecordUpstreamRequest(operation string, seconds float64, err error) {
	DefaultMetrics.UpstreamRequestLatency.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.UpstreamErrors.WithLabelValues(operation).Inc()
	}
}

// RecordCacheLookup records a history cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		DefaultMetrics.HistoryCacheHits.Inc()
		return
	}
	DefaultMetrics.HistoryCacheMisses.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// SetFeedClients updates the connected feed clients gauge.
func SetFeedClients(n int) {
	DefaultMetrics.FeedClients.Set(float64(n))
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(status).Observe(durationSeconds)
}

// MarkScanSucceeded sets the last successful scan gauge.
func MarkScanSucceeded(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulScan.Set(float64(unixSeconds))
}
