// Package telemetry holds the prometheus collectors for both sides of the
// admin API: the mock backend's routes and the client's outgoing calls.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	serverRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sbp_api_server_requests_total",
			Help: "Requests served by the admin API, by route pattern",
		},
		[]string{"method", "route", "status"},
	)

	serverRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sbp_api_server_request_duration_seconds",
			Help:    "Admin API handler latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware counts and times requests under the route pattern rather than
// the concrete path, keeping IDs out of the label set.
func Middleware(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := newStatusRecorder(w)
		start := time.Now()

		next(rec, r)

		serverRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		serverRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	}
}
