package metrics

import "github.com/prometheus/client_golang/prometheus"

// FormMetrics exposes counters/histograms for form submissions, email
// deliveries and chat replies.
type FormMetrics struct {
	submissionsTotal *prometheus.CounterVec
	deliveriesTotal  *prometheus.CounterVec
	dispatchLatency  *prometheus.HistogramVec
	chatRepliesTotal *prometheus.CounterVec
}

// NewFormMetrics registers the collectors on reg, or on the default
// registerer when reg is nil.
func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Total form submissions by outcome",
		}, []string{"kind", "result"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: "forms",
			Name:      "deliveries_total",
			Help:      "Total email delivery attempts",
		}, []string{"kind", "audience", "status"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: "forms",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency of sending both emails for a submission",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		chatRepliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Total chat replies by source",
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.deliveriesTotal, m.dispatchLatency, m.chatRepliesTotal)
	return m
}

// ObserveSubmission counts a handled submission. result is one of sent,
// invalid, bad_request, unavailable or failed.
func (m *FormMetrics) ObserveSubmission(kind, result string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveDelivery counts one email attempt. audience is business or customer.
func (m *FormMetrics) ObserveDelivery(kind, audience, status string) {
	if m == nil {
		return
	}
	m.deliveriesTotal.WithLabelValues(kind, audience, status).Inc()
}

// ObserveDispatchLatency records how long sending both emails took.
func (m *FormMetrics) ObserveDispatchLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchLatency.WithLabelValues(kind).Observe(seconds)
}

// ObserveChatReply counts a chat reply by where it came from (llm, fallback, error).
func (m *FormMetrics) ObserveChatReply(source string) {
	if m == nil {
		return
	}
	m.chatRepliesTotal.WithLabelValues(source).Inc()
}
