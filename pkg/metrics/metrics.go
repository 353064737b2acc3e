package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_created_total",
			Help: "Reservations committed as submitted",
		},
	)

	ReservationConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_conflicts_total",
			Help: "Booking attempts rejected because the slot was taken",
		},
	)

	ValidationRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_validation_rejections_total",
			Help: "Booking attempts rejected by business rules",
		},
	)

	CaptchaRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_captcha_rejections_total",
			Help: "Booking attempts rejected by captcha verification",
		},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_status_transitions_total",
			Help: "Workflow status transitions applied",
		},
		[]string{"to"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reservation_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
