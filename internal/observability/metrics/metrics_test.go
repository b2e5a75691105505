package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestFormMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFormMetrics(reg)

	m.ObserveSubmission("contact", "sent")
	m.ObserveSubmission("contact", "sent")
	m.ObserveSubmission("booking", "invalid")
	m.ObserveDelivery("contact", "business", "sent")
	m.ObserveDelivery("contact", "customer", "failed")
	m.ObserveDispatchLatency("contact", 0.25)
	m.ObserveChatReply("fallback")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissionsTotal.WithLabelValues("contact", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissionsTotal.WithLabelValues("booking", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveriesTotal.WithLabelValues("contact", "customer", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatRepliesTotal.WithLabelValues("fallback")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.dispatchLatency))
}

func TestFormMetricsDefaultRegistry(t *testing.T) {
	m := NewFormMetrics(nil)
	t.Cleanup(func() {
		prometheus.Unregister(m.submissionsTotal)
		prometheus.Unregister(m.deliveriesTotal)
		prometheus.Unregister(m.dispatchLatency)
		prometheus.Unregister(m.chatRepliesTotal)
	})
	m.ObserveSubmission("booking", "sent")
}

func TestFormMetricsNilSafe(t *testing.T) {
	var m *FormMetrics
	m.ObserveSubmission("contact", "sent")
	m.ObserveDelivery("contact", "business", "sent")
	m.ObserveDispatchLatency("contact", 0.1)
	m.ObserveChatReply("llm")
}
