package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduled notification processing
	NotificationsSent    prometheus.Counter
	NotificationsFailed  prometheus.Counter
	NotificationsRetried prometheus.Counter
	ProcessingLatency    prometheus.Histogram
	DispatchesPerChannel *prometheus.CounterVec

	// Deadline reminder expansion
	RemindersChecked     prometheus.Counter
	NotificationsCreated prometheus.Counter
	ExpansionLatency     prometheus.Histogram

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// New creates and registers all application metrics
func New(namespace string) *Metrics {
	return &Metrics{
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications successfully dispatched",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of notifications that exhausted their retries",
		}),
		NotificationsRetried: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_retried_total",
			Help:      "Total number of dispatch attempts rescheduled for retry",
		}),
		ProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "Time spent draining due notifications per cycle",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		DispatchesPerChannel: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Dispatch attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		RemindersChecked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_checked_total",
			Help:      "Total number of deadline reminders examined by the expander",
		}),
		NotificationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Total number of notifications materialized from reminders",
		}),
		ExpansionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expansion_duration_seconds",
			Help:      "Time spent expanding deadline reminders per cycle",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Database operations by name and outcome",
		}, []string{"operation", "status"}),
	}
}
