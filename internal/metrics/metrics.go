// Package metrics registers the bot's Prometheus collectors and exposes small
// helpers so callers never touch label values directly.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modbot_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_report_sessions_total",
		Help: "Reporting conversations by outcome (started, completed, cancelled, withdrawn).",
	}, []string{"outcome"})

	reportsAdmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_reports_admitted_total",
		Help: "Reports admitted to the moderation queue by source and broad category.",
	}, []string{"source", "category"})

	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_verdicts_total",
		Help: "Moderator verdicts by verdict word and resulting outcome.",
	}, []string{"verdict", "outcome"})

	markersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_markers_applied_total",
		Help: "Symbolic moderation markers applied by kind.",
	}, []string{"kind"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modbot_queue_depth",
		Help: "Reports waiting in the moderation queue, including the one under review.",
	})

	classifierFlags = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modbot_classifier_flags_total",
		Help: "Public messages flagged as misinformation by the classifier.",
	})

	externalErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_external_errors_total",
		Help: "Failed calls to external services by service name.",
	}, []string{"service"})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_rate_limited_total",
		Help: "Inbound events rejected by the rate limiter, by scope (ip, author).",
	}, []string{"scope"})

	outboundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_outbound_deliveries_total",
		Help: "Outbound gateway deliveries by success status.",
	}, []string{"status"})
)

// Middleware returns a Gin middleware that records per-request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		requestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler returns a Gin handler serving the Prometheus registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordSession counts a reporting conversation outcome.
func RecordSession(outcome string) {
	sessionsTotal.WithLabelValues(outcome).Inc()
}

// RecordAdmission counts a report entering the moderation queue.
func RecordAdmission(automated bool, category string) {
	source := "user"
	if automated {
		source = "classifier"
	}
	reportsAdmitted.WithLabelValues(source, category).Inc()
}

// RecordVerdict counts a handled moderator verdict.
func RecordVerdict(verdict, outcome string) {
	verdictsTotal.WithLabelValues(verdict, outcome).Inc()
}

// RecordMarker counts an applied marker.
func RecordMarker(kind string) {
	markersTotal.WithLabelValues(kind).Inc()
}

// SetQueueDepth publishes the current queue length.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// RecordClassifierFlag counts an automatic misinformation flag.
func RecordClassifierFlag() {
	classifierFlags.Inc()
}

// RecordExternalError counts a failed call to an external service.
func RecordExternalError(service string) {
	externalErrors.WithLabelValues(service).Inc()
}

// RecordOutbound counts an outbound delivery attempt outcome.
func RecordOutbound(success bool) {
	if success {
		outboundTotal.WithLabelValues("success").Inc()
	} else {
		outboundTotal.WithLabelValues("failure").Inc()
	}
}

// RecordRateLimited counts a rejected inbound event.
func RecordRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}
