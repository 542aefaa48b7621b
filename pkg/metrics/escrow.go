package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EscrowMetrics records gateway call and webhook processing outcomes.
type EscrowMetrics struct {
	gatewayDuration *prometheus.HistogramVec
	gatewayCalls    *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
}

// NewEscrowMetrics registers the escrow metrics on the provided registerer.
func NewEscrowMetrics(reg prometheus.Registerer) *EscrowMetrics {
	if reg == nil {
		return &EscrowMetrics{}
	}
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_call_duration_seconds",
		Help:    "Duration of payment gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	gatewayCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_calls_total",
		Help: "Payment gateway calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Processed gateway webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(gatewayDuration, gatewayCalls, webhookEvents)
	return &EscrowMetrics{
		gatewayDuration: gatewayDuration,
		gatewayCalls:    gatewayCalls,
		webhookEvents:   webhookEvents,
	}
}

// ObserveGatewayCall records one gateway call with its duration and outcome.
func (m *EscrowMetrics) ObserveGatewayCall(operation string, duration time.Duration, err error) {
	if m == nil || m.gatewayCalls == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	op := normalizeLabel(operation)
	m.gatewayDuration.WithLabelValues(op).Observe(duration.Seconds())
	m.gatewayCalls.WithLabelValues(op, outcome).Inc()
}

// IncWebhookEvent counts one processed webhook event.
func (m *EscrowMetrics) IncWebhookEvent(eventType string, err error) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), outcome).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
