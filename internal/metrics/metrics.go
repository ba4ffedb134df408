package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Pricing metrics
	QuotesComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_quotes_computed_total",
			Help: "Total number of pricing quotes computed",
		},
		[]string{"care_type", "province"},
	)

	ConfigUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_config_updates_total",
			Help: "Total number of pricing config replacements",
		},
	)

	ConfigLoadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_config_load_failures_total",
			Help: "Total number of config loads that fell back to the default config",
		},
	)

	// Booking metrics
	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total number of booking requests created",
		},
	)

	// Payment metrics
	PaymentIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_intents_total",
			Help: "Total number of payment intents created or reconciled",
		},
		[]string{"status"},
	)

	PaymentAmountCents = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_amount_cents",
			Help:    "Distribution of booking payment amounts in cents",
			Buckets: prometheus.ExponentialBuckets(500, 2, 10),
		},
	)
)
