package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kassa_http_requests_total",
		Help: "Number of HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kassa_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kassa_reservations_created_total",
		Help: "Number of seat holds successfully created.",
	})

	ReservationsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kassa_reservations_confirmed_total",
		Help: "Number of reservations finalized into sales.",
	})

	ReservationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kassa_reservations_expired_total",
		Help: "Number of stale holds reclaimed by the expiration sweeper.",
	})

	SeatsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kassa_seats_released_total",
		Help: "Number of seats returned to AVAILABLE on expiry.",
	})

	ReservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kassa_reservation_conflicts_total",
		Help: "Number of hold or confirmation attempts rejected with a conflict.",
	})
)
