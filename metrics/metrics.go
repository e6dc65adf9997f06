package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan outcomes used as the "result" label of ScanAttempts.
const (
	ScanResultScanned        = "scanned"
	ScanResultAlreadyScanned = "already_scanned"
	ScanResultNotFound       = "not_found"
	ScanResultError          = "error"
)

var (
	// MessagesProcessed The total number of processed messages (counter)
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processed_total",
			Help:      "The total number of processed messages",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingFailed total number of message processing failures (counter)
	MessagesProcessingFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processing_failed_total",
			Help:      "The total number of message processing failures",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingDuration The total time spent processing messages (summary with quantiles 0.5, 0.9, and 0.99)
	MessagesProcessingDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "messages",
			Name:       "processing_duration_seconds",
			Help:       "The total time spent processing messages",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"topic", "handler"},
	)

	TicketsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickets",
			Name:      "created_total",
			Help:      "The total number of issued tickets",
		},
	)

	// ScanAttempts counts scans by outcome, see the ScanResult constants.
	ScanAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickets",
			Name:      "scan_attempts_total",
			Help:      "The total number of scan attempts by result",
		},
		[]string{"result"},
	)

	TicketsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickets",
			Name:      "updated_total",
			Help:      "The total number of ticket edits that changed at least one field",
		},
	)

	TicketsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickets",
			Name:      "deleted_total",
			Help:      "The total number of deleted tickets",
		},
	)

	// MessagesDropped messages acked after retries were exhausted (counter)
	MessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "dropped_total",
			Help:      "The total number of messages acked after their handler kept failing",
		},
		[]string{"topic", "handler"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickets",
			Name:      "notification_failures_total",
			Help:      "The total number of notifications that could not be sent",
		},
		[]string{"kind"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tickets",
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of ticket store operations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	TicketsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tickets",
			Name:      "total",
			Help:      "Number of tickets in the store",
		},
	)

	TicketsScanned = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tickets",
			Name:      "scanned",
			Help:      "Number of scanned tickets",
		},
	)

	TicketsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tickets",
			Name:      "pending",
			Help:      "Number of tickets not scanned yet",
		},
	)

	TicketClasses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tickets",
			Name:      "classes",
			Help:      "Number of distinct ticket classes",
		},
	)
)
