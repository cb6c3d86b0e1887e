package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qurux",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "status"},
	)

	admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qurux",
			Name:      "booking_admissions_total",
			Help:      "Booking admission attempts by outcome.",
		},
		[]string{"outcome"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qurux",
			Name:      "booking_status_transitions_total",
			Help:      "Applied booking status transitions by target status.",
		},
		[]string{"status"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qurux",
			Name:      "booking_notifications_total",
			Help:      "Booking status notifications by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, admissions, transitions, notifications)
	})
}

// IncHTTP counts a served request.
func IncHTTP(route string, status int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// IncAdmission counts an admission attempt by outcome, e.g. admitted, conflict
// or rate_limited.
func IncAdmission(outcome string) {
	admissions.WithLabelValues(outcome).Inc()
}

// IncTransition counts a persisted status change.
func IncTransition(status string) {
	transitions.WithLabelValues(status).Inc()
}

// IncNotification counts a dispatcher outcome: sent, failed, dropped or skipped.
func IncNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}
