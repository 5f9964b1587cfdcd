// Package metrics holds the Prometheus collectors of the booking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	Quotes              *prometheus.CounterVec
	BookingIntents      *prometheus.CounterVec
	PaymentVerification *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Quotes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_quotes_total",
			Help: "Price quotes computed, by unit and outcome.",
		}, []string{"unit", "outcome"}),
		BookingIntents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_intents_total",
			Help: "Booking intents submitted, by outcome.",
		}, []string{"outcome"}),
		PaymentVerification: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_payment_verifications_total",
			Help: "Payment callbacks processed, by outcome.",
		}, []string{"outcome"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_reservation_transitions_total",
			Help: "Reservation status changes made by staff.",
		}, []string{"from", "to"}),
	}
}

// Outcome is a low-cardinality label for a failed or successful operation.
func Outcome(err error, classify func(error) string) string {
	if err == nil {
		return "ok"
	}
	if classify != nil {
		if label := classify(err); label != "" {
			return label
		}
	}
	return "error"
}
