package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request metadata per service.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	service  string
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer, service string) *HTTPMetrics {
	if service == "" {
		service = "unknown"
	}
	if reg == nil {
		return &HTTPMetrics{service: service}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests.",
	}, []string{"method", "path", "status", "service"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_latency_seconds",
		Help:    "Request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "service"})
	reg.MustRegister(requests, latency)
	return &HTTPMetrics{
		requests: requests,
		latency:  latency,
		service:  service,
	}
}

// ObserveRequest records one completed request.
func (m *HTTPMetrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if status <= 0 {
		status = 200
	}
	if m.latency != nil {
		m.latency.WithLabelValues(method, path, m.service).Observe(duration.Seconds())
	}
	if m.requests != nil {
		m.requests.WithLabelValues(method, path, strconv.Itoa(status), m.service).Inc()
	}
}
