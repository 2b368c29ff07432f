package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CheckInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_check_ins_total",
			Help: "Check-in attempts by result",
		},
		[]string{"result"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_payments_total",
			Help: "Total number of recorded payments",
		},
		[]string{"kind", "method"},
	)

	RevenueTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_revenue_total",
			Help: "Sum of recorded payment amounts",
		},
	)

	SessionResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_session_resets_total",
			Help: "Total number of subscription session resets",
		},
	)

	SideEffectFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_side_effect_failures_total",
			Help: "Best-effort side effects that failed after the primary write",
		},
		[]string{"op"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymdesk_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	MembersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymdesk_members",
			Help: "Number of registered members at the last statistics refresh",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordCheckIn(result string) {
	CheckInsTotal.WithLabelValues(result).Inc()
}

func RecordPayment(kind, method string, amount int64) {
	PaymentsTotal.WithLabelValues(kind, method).Inc()
	if amount > 0 {
		RevenueTotal.Add(float64(amount))
	}
}

func RecordSessionReset() {
	SessionResetsTotal.Inc()
}

func RecordSideEffectFailure(op string) {
	SideEffectFailuresTotal.WithLabelValues(op).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
