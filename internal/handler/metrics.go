package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	dcSubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "degreechain_submissions_total",
		Help: "Total degree records submitted and sealed.",
	})

	dcVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degreechain_verifications_total",
		Help: "Total verification decisions applied, by resulting status.",
	}, []string{"status"})

	dcChainBlocks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "degreechain_chain_blocks",
		Help: "Number of sealed blocks in the chain.",
	})

	dcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degreechain_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	dcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "degreechain_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		dcRequestsTotal.WithLabelValues(method, path, status).Inc()
		dcRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordSubmission records one sealed degree submission.
func RecordSubmission() {
	dcSubmissionsTotal.Inc()
}

// RecordVerification records one applied verification decision.
func RecordVerification(status string) {
	dcVerificationsTotal.WithLabelValues(status).Inc()
}

// SetChainBlocks sets the sealed-block gauge.
func SetChainBlocks(n int) {
	dcChainBlocks.Set(float64(n))
}
