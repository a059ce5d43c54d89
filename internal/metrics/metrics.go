// Package metrics provides Prometheus metrics for the unifiedfs server.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unifiedfs_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unifiedfs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Provider operation metrics
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unifiedfs_operations_total",
			Help: "Total provider operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	resolveResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unifiedfs_resolve_results_total",
			Help: "Path resolutions by result code",
		},
		[]string{"result"},
	)

	listingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "unifiedfs_listing_duration_seconds",
			Help:    "Time to list the children of a document",
			Buckets: prometheus.DefBuckets,
		},
	)

	listingSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "unifiedfs_listing_documents",
			Help:    "Number of documents returned per listing",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// Handle table metrics
	openHandles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unifiedfs_open_handles",
			Help: "Number of open document handles",
		},
	)

	bytesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unifiedfs_bytes_read_total",
			Help: "Total bytes read through document handles",
		},
	)

	bytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unifiedfs_bytes_written_total",
			Help: "Total bytes written through document handles",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordOperation records a provider operation. An empty outcome means
// success.
func RecordOperation(operation, outcome string) {
	if outcome == "" {
		outcome = "ok"
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordResolve records the result of a path resolution.
func RecordResolve(result string) {
	resolveResultsTotal.WithLabelValues(result).Inc()
}

// RecordListing records a directory listing.
func RecordListing(documents int, duration time.Duration) {
	listingDuration.Observe(duration.Seconds())
	listingSize.Observe(float64(documents))
}

// SetOpenHandles sets the number of open handles.
func SetOpenHandles(count int) {
	openHandles.Set(float64(count))
}

// RecordRead records bytes read through a handle.
func RecordRead(n int) {
	bytesRead.Add(float64(n))
}

// RecordWrite records bytes written through a handle.
func RecordWrite(n int) {
	bytesWritten.Add(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// UnmatchedRoute labels requests that no route accepted.
const UnmatchedRoute = "unmatched"

// Middleware returns HTTP middleware that records request metrics. It must
// wrap the ServeMux directly: requests are labelled with the matched route
// pattern, which the mux records on the request it is handed.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, routeLabel(r), rw.statusCode, time.Since(start))
	})
}

// routeLabel returns the path part of the matched pattern, so the label set
// stays bounded whatever paths clients send.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return UnmatchedRoute
	}
	if _, route, ok := strings.Cut(r.Pattern, " "); ok {
		return route
	}
	return r.Pattern
}
