package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paybot"

// Charge outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeDeclined    = "declined"
	OutcomeUnavailable = "unavailable"
	OutcomeTimeout     = "timeout"
	OutcomeInvalid     = "invalid"
)

// Notification outcomes.
const (
	NotifySent   = "sent"
	NotifyFailed = "failed"
)

// Metrics holds the application's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	charges        *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	chargeDuration *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		charges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charges_total",
			Help:      "Charge attempts by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Confirmation messages by delivery outcome.",
		}, []string{"outcome"}),
		chargeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "charge_duration_seconds",
			Help:      "Latency of payment gateway charge calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.charges, m.notifications, m.chargeDuration, m.httpRequests)
	return m
}

// ObserveCharge records one charge attempt.
func (m *Metrics) ObserveCharge(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.charges.WithLabelValues(outcome).Inc()
	if outcome != OutcomeInvalid {
		m.chargeDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	}
}

// ObserveNotification records one notification attempt.
func (m *Metrics) ObserveNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// ChargeCount returns the charge counter for outcome.
func (m *Metrics) ChargeCount(outcome string) prometheus.Counter {
	return m.charges.WithLabelValues(outcome)
}

// NotificationCount returns the notification counter for outcome.
func (m *Metrics) NotificationCount(outcome string) prometheus.Counter {
	return m.notifications.WithLabelValues(outcome)
}
