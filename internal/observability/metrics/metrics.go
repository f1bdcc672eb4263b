package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead funnel.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	dispatchTotal    *prometheus.CounterVec
	dispatchLatency  *prometheus.HistogramVec
	adminOpsTotal    *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wmc",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Partner form submissions by outcome",
		}, []string{"outcome"}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wmc",
			Subsystem: "leads",
			Name:      "dispatch_total",
			Help:      "Lead deliveries by destination and result",
		}, []string{"destination", "result"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wmc",
			Subsystem: "leads",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency of relay and store deliveries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"destination"}),
		adminOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wmc",
			Subsystem: "admin",
			Name:      "operations_total",
			Help:      "Admin console operations by op and result",
		}, []string{"op", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.dispatchTotal, m.dispatchLatency, m.adminOpsTotal)
	return m
}

func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *LeadMetrics) ObserveDispatch(destination string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(destination, result(ok)).Inc()
	m.dispatchLatency.WithLabelValues(destination).Observe(seconds)
}

func (m *LeadMetrics) ObserveAdminOp(op string, ok bool) {
	if m == nil {
		return
	}
	m.adminOpsTotal.WithLabelValues(op, result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
