// Package metrics collects and exposes Prometheus metrics for the purchase
// and media pipelines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the interface the service layer records through.
type Collector interface {
	RecordCheckoutSession()
	RecordWebhookEvent(eventType, outcome string)
	RecordEnrollmentInconsistency()
	RecordVideoURLRefresh()
}

// Webhook outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

type PromCollector struct {
	checkoutSessions          prometheus.Counter
	webhookEvents             *prometheus.CounterVec
	enrollmentInconsistencies prometheus.Counter
	videoURLRefreshes         prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *PromCollector {
	c := &PromCollector{
		checkoutSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_checkout_sessions_created_total",
			Help: "Checkout sessions created against the payment provider.",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_payment_webhook_events_total",
			Help: "Payment webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		enrollmentInconsistencies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_enrollment_inconsistencies_total",
			Help: "Partial enrollment writes needing operator reconciliation.",
		}),
		videoURLRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_video_url_refreshes_total",
			Help: "Presigned video URLs re-issued on read.",
		}),
	}

	reg.MustRegister(
		c.checkoutSessions,
		c.webhookEvents,
		c.enrollmentInconsistencies,
		c.videoURLRefreshes,
	)
	return c
}

func (c *PromCollector) RecordCheckoutSession() {
	c.checkoutSessions.Inc()
}

func (c *PromCollector) RecordWebhookEvent(eventType, outcome string) {
	c.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (c *PromCollector) RecordEnrollmentInconsistency() {
	c.enrollmentInconsistencies.Inc()
}

func (c *PromCollector) RecordVideoURLRefresh() {
	c.videoURLRefreshes.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
