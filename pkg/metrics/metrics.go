// Package metrics exposes the Prometheus counters, gauges, and histograms
// shared across ArtStore's four services. Each service registers its own
// process against the default registry at startup and serves it from
// GET /metrics via Handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Storage-element write path.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artstore_storage_element_uploads_total",
			Help: "Total number of upload attempts by outcome",
		},
		[]string{"outcome"}, // "committed", "rejected", "error"
	)

	UploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artstore_storage_element_upload_duration_seconds",
			Help:    "Time to complete the write-ahead-log commit protocol for an upload",
			Buckets: prometheus.DefBuckets,
		},
	)

	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artstore_storage_element_downloads_total",
			Help: "Total number of download requests by outcome",
		},
		[]string{"outcome"}, // "full", "range", "not_modified", "not_satisfiable"
	)

	DownloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artstore_storage_element_download_bytes_total",
			Help: "Total number of bytes served to download clients",
		},
	)

	WALRecoveryRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artstore_storage_element_wal_recovery_total",
			Help: "Total number of WAL recovery passes by resolution",
		},
		[]string{"resolution"}, // "committed", "rolled_back", "orphan_removed"
	)

	ReconcileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artstore_storage_element_reconcile_duration_seconds",
			Help:    "Time taken by a cache reconciliation pass",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"}, // "check", "incremental", "full", "expired_cleanup"
	)

	ReconcileBusyTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artstore_storage_element_reconcile_busy_total",
			Help: "Total number of reconciliation requests rejected because a higher-priority pass was already running",
		},
	)

	CapacityUsedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artstore_storage_element_capacity_used_bytes",
			Help: "Bytes currently occupied on this storage element",
		},
	)

	CapacityStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artstore_storage_element_capacity_status",
			Help: "Current capacity status as an ordinal (0=OK, 1=WARNING, 2=CRITICAL, 3=FULL)",
		},
	)

	// Ingester selection and proxying.
	IngestSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artstore_ingester_selections_total",
			Help: "Total number of storage-element selection attempts by outcome",
		},
		[]string{"outcome"}, // "selected", "no_eligible_element", "rejected_large_file", "no_file_part"
	)

	IngestProxyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artstore_ingester_proxy_duration_seconds",
			Help:    "Time spent streaming an upload through to the selected storage element",
			Buckets: prometheus.DefBuckets,
		},
	)

	IngestBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artstore_ingester_bytes_total",
			Help: "Total number of bytes proxied from ingest clients to storage elements",
		},
	)

	// Query service's event consumption and search.
	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artstore_query_events_consumed_total",
			Help: "Total number of stream events consumed by event type and outcome",
		},
		[]string{"event_type", "outcome"}, // outcome: "ok", "error"
	)

	EventProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artstore_query_event_processing_duration_seconds",
			Help:    "Time to apply a consumed event to the search index",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)

	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artstore_query_search_requests_total",
			Help: "Total number of search requests by outcome",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artstore_query_search_duration_seconds",
			Help:    "Search query execution time against the Postgres search store",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTP surface shared by all four services.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artstore_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artstore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Handler returns the Prometheus scrape handler, served by every service at
// GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times an in-flight operation and reports the elapsed seconds to a
// histogram once the caller is done.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
