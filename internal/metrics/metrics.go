// Package metrics provides Prometheus metrics for the log splitter
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for one process.
type Metrics struct {
	// Pipeline counters
	JobsSplit     prometheus.Counter
	JobsExtracted prometheus.Counter
	JobsExecuted  prometheus.Counter

	// Error counters
	WarningsEmitted prometheus.Counter
	FatalErrors     prometheus.Counter

	// Pipeline gauges
	WorkQueueDepth  prometheus.Gauge
	PendingHeapSize prometheus.Gauge

	// Timing metrics
	ExtractDuration prometheus.Histogram
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dmlogsplit"
	}

	m := &Metrics{
		JobsSplit: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_split_total",
				Help:      "Total number of records carved out by the splitter",
			},
		),
		JobsExtracted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_extracted_total",
				Help:      "Total number of jobs parsed and dispatched by extractors",
			},
		),
		JobsExecuted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_executed_total",
				Help:      "Total number of ordered tasks run by the executor",
			},
		),
		WarningsEmitted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "warnings_emitted_total",
				Help:      "Total number of soft warnings written to stderr",
			},
		),
		FatalErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fatal_errors_total",
				Help:      "Total number of fatal errors that cancelled a run",
			},
		),
		WorkQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "work_queue_depth",
				Help:      "Current number of jobs buffered between splitter and extractors",
			},
		),
		PendingHeapSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_heap_size",
				Help:      "Current number of ordered tasks buffered in the executor",
			},
		),
		ExtractDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extract_duration_seconds",
				Help:      "Per-job parse and dispatch latency",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics instance.
// Returns nil if Init has not been called.
func Get() *Metrics {
	return defaultMetrics
}

// StartServer starts an HTTP server for Prometheus metrics scraping.
// Blocks until the server exits.
func StartServer(address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return http.ListenAndServe(address, mux)
}
