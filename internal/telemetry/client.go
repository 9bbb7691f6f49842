package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StatusError labels requests that never got a response.
const StatusError = "error"

var (
	clientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sbp_api_client_requests_total",
			Help: "Requests issued to the backend API",
		},
		[]string{"method", "route", "status"},
	)

	clientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sbp_api_client_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveClientRequest records one backend call. status is 0 for transport failures.
func ObserveClientRequest(method, route string, status int, elapsed time.Duration) {
	label := StatusError
	if status > 0 {
		label = strconv.Itoa(status)
	}
	clientRequestsTotal.WithLabelValues(method, route, label).Inc()
	clientRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
