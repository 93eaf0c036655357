package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds platform-level Prometheus metrics shared across handlers.
type Metrics struct {
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers the platform metrics.
func New() *Metrics {
	return &Metrics{
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "holly_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "status"}),
	}
}

// ObserveHTTPDuration records the duration of one HTTP request.
func (m *Metrics) ObserveHTTPDuration(route, status string, d time.Duration) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(route, status).Observe(d.Seconds())
	}
}
