package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveGatewayCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEscrowMetrics(reg)

	m.ObserveGatewayCall("charge", 120*time.Millisecond, nil)
	m.ObserveGatewayCall("charge", 80*time.Millisecond, errors.New("declined"))
	m.ObserveGatewayCall("", 10*time.Millisecond, nil)

	if got := testutil.ToFloat64(m.gatewayCalls.WithLabelValues("charge", "success")); got != 1 {
		t.Fatalf("expected 1 successful charge, got %v", got)
	}
	if got := testutil.ToFloat64(m.gatewayCalls.WithLabelValues("charge", "failure")); got != 1 {
		t.Fatalf("expected 1 failed charge, got %v", got)
	}
	if got := testutil.ToFloat64(m.gatewayCalls.WithLabelValues("unknown", "success")); got != 1 {
		t.Fatalf("expected unlabeled call to map to unknown, got %v", got)
	}
}

func TestIncWebhookEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEscrowMetrics(reg)

	m.IncWebhookEvent("payment_intent.succeeded", nil)
	m.IncWebhookEvent("payment_intent.succeeded", errors.New("boom"))

	if got := testutil.ToFloat64(m.webhookEvents.WithLabelValues("payment_intent.succeeded", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(m.webhookEvents.WithLabelValues("payment_intent.succeeded", "failure")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}

func TestNilRegistererIsSafe(t *testing.T) {
	m := NewEscrowMetrics(nil)
	m.ObserveGatewayCall("transfer", time.Second, nil)
	m.IncWebhookEvent("account.updated", nil)
}
