// Package metrics exposes prometheus instruments for the HTTP surface
// and the report engine.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics records request counts and latencies per route.
type HTTPMetrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	exports   *prometheus.CounterVec
	rateLimit *prometheus.CounterVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "advocase_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advocase_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		exports: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "advocase_report_exports_total",
			Help: "Report exports by report name and format.",
		}, []string{"report", "format"}),
		rateLimit: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "advocase_rate_limit_decisions_total",
			Help: "Rate limit decisions by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
	}
}

// RecordReportExport increments the export counter.
func (m *HTTPMetrics) RecordReportExport(report, format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(strings.TrimSpace(report), strings.TrimSpace(format)).Inc()
}

// RecordRateLimit increments the rate limit decision counter.
func (m *HTTPMetrics) RecordRateLimit(endpoint string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	m.rateLimit.WithLabelValues(strings.TrimSpace(endpoint), outcome).Inc()
}

// GinMiddleware instruments inbound requests.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
