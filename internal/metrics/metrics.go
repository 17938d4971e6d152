package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	bookingOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slot_booking",
			Name:      "operations_total",
			Help:      "Booking coordinator operations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	bookingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "slot_booking",
			Name:      "operation_duration_seconds",
			Help:      "Latency of booking coordinator operations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slot_booking",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slot_booking",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by backend.",
		},
		[]string{"backend"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingOps, bookingLatency, httpRequests, rateLimited)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveBooking records the outcome and latency of one coordinator call.
func ObserveBooking(op, outcome string, d time.Duration) {
	bookingOps.WithLabelValues(op, outcome).Inc()
	bookingLatency.WithLabelValues(op).Observe(d.Seconds())
}

// IncHTTP counts a finished HTTP request.
func IncHTTP(method, route string, status int) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// IncRateLimited counts a rejected request.
func IncRateLimited(backend string) {
	rateLimited.WithLabelValues(backend).Inc()
}
