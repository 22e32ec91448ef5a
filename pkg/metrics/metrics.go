package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

// Recorder records billing, webhook and queue metrics. It satisfies
// billing.Metrics, webhook.Metrics and queue.Observer.
type Recorder struct {
	gatherer prometheus.Gatherer

	providerFailures     *prometheus.CounterVec
	subscriptionsRevoked *prometheus.CounterVec
	entitlements         *prometheus.CounterVec
	webhookDeliveries    *prometheus.CounterVec
	tasksProcessed       *prometheus.CounterVec
	taskDuration         *prometheus.HistogramVec
}

// New registers the collectors on reg under namespace. A nil reg uses a
// fresh registry.
func New(reg *prometheus.Registry, namespace string) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Recorder{
		gatherer: reg,

		providerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "provider_failures_total",
			Help:      "Payments provider calls that failed, by operation.",
		}, []string{"operation"}),

		subscriptionsRevoked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "subscriptions_revoked_total",
			Help:      "Subscriptions revoked by the service, by reason.",
		}, []string{"reason"}),

		entitlements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "entitlements_resolved_total",
			Help:      "Entitlement resolutions, by resulting access tier.",
		}, []string{"tier"}),

		webhookDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "deliveries_total",
			Help:      "Webhook deliveries, by event type and outcome.",
		}, []string{"event_type", "outcome"}),

		tasksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "tasks_processed_total",
			Help:      "Background tasks processed, by task name and outcome.",
		}, []string{"task", "outcome"}),

		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "task_duration_seconds",
			Help:      "Background task handler duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
	}
}

func (r *Recorder) ProviderCallFailed(operation string) {
	r.providerFailures.WithLabelValues(operation).Inc()
}

func (r *Recorder) SubscriptionRevoked(reason string) {
	r.subscriptionsRevoked.WithLabelValues(reason).Inc()
}

func (r *Recorder) EntitlementResolved(e *billing.Entitlement) {
	r.entitlements.WithLabelValues(Tier(e)).Inc()
}

func (r *Recorder) WebhookDelivery(eventType, outcome string) {
	r.webhookDeliveries.WithLabelValues(eventType, outcome).Inc()
}

func (r *Recorder) TaskProcessed(name, outcome string, duration time.Duration) {
	r.tasksProcessed.WithLabelValues(name, outcome).Inc()
	r.taskDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Tier labels an entitlement as "lifetime", "subscription" or "free".
func Tier(e *billing.Entitlement) string {
	switch {
	case e == nil || !e.IsPremium:
		return "free"
	case e.IsLifetime:
		return "lifetime"
	default:
		return "subscription"
	}
}
