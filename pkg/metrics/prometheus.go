package metrics

import "github.com/prometheus/client_golang/prometheus"

var NotificationsReceivedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "graph_notifications_received_total",
		Help: "Total number of webhook notification items received",
	},
	[]string{"change_type"},
)

var NotificationsDroppedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "graph_notifications_dropped_total",
		Help: "Total number of notification items dropped before dispatch",
	},
	[]string{"reason"},
)

var NotificationsDedupedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "graph_notifications_deduped_total",
		Help: "Total number of duplicate deliveries collapsed by the dedup window",
	},
)

var NotificationsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "graph_notifications_processed_total",
		Help: "Total number of notifications finished by the pipeline",
	},
	[]string{"state", "reason"},
)

var PipelineProcessingDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "graph_pipeline_processing_duration_seconds",
		Help:    "End-to-end processing time per notification",
		Buckets: prometheus.DefBuckets,
	},
)

var SubscriptionRenewalsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "graph_subscription_renewals_total",
		Help: "Total number of subscription renewal attempts by the sweep",
	},
	[]string{"status"},
)

var SubscriptionsExpiredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "graph_subscriptions_expired_total",
		Help: "Total number of subscriptions that lost coverage after failed renewals",
	},
)

// Register registers all collectors on the default registry. Call once from main.
func Register() {
	prometheus.MustRegister(
		NotificationsReceivedTotal,
		NotificationsDroppedTotal,
		NotificationsDedupedTotal,
		NotificationsProcessedTotal,
		PipelineProcessingDuration,
		SubscriptionRenewalsTotal,
		SubscriptionsExpiredTotal,
	)
}
