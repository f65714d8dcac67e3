package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_catcher_events_total",
			Help: "Total number of webhook ingestion attempts by result",
		},
		[]string{"result"},
	)

	EventBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_catcher_event_bytes_total",
			Help: "Total bytes of accepted webhook payloads",
		},
	)

	// Storage metrics
	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_catcher_store_duration_seconds",
			Help:    "Duration of event store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_catcher_store_errors_total",
			Help: "Total number of failed event store operations",
		},
		[]string{"operation"},
	)

	// Read path metrics
	VanishedKeys = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_catcher_listing_vanished_keys_total",
			Help: "Listed keys whose value was gone by the time it was fetched",
		},
	)

	NamespaceScanKeys = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_catcher_namespace_scan_keys",
			Help:    "Number of keys examined per namespace scan",
			Buckets: []float64{10, 100, 500, 1000, 1500, 2000},
		},
	)

	NamespaceScanTruncated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_catcher_namespace_scan_truncated_total",
			Help: "Namespace scans stopped by the scan cap before the listing was complete",
		},
	)

	// Delete metrics
	DeletesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_catcher_deletes_issued_total",
			Help: "Total number of delete calls issued by batch deletes",
		},
	)

	DeleteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_catcher_delete_failures_total",
			Help: "Total number of failed delete calls inside batch deletes",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_catcher_rate_limit_hits_total",
			Help: "Total number of rate limited ingestion requests",
		},
		[]string{"namespace"},
	)

	// Index maintenance
	IndexReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_catcher_index_reaped_total",
			Help: "Index entries removed because their value expired",
		},
	)

	// Notifications
	NotifyErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_catcher_notify_errors_total",
			Help: "Total number of notifications that could not be published",
		},
	)
)
