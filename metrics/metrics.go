package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	StoreOps = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_store_operation_duration_seconds",
		Help:    "Record store call latency by operation, collection and outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "collection", "outcome"})

	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_notifications_total",
		Help: "Notification send attempts by template and result status.",
	}, []string{"template", "status"})

	AuditPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_audit_events_total",
		Help: "Audit events published by type and outcome.",
	}, []string{"type", "outcome"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, StoreOps, NotificationsSent, AuditPublished)
}

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveStore records the latency and outcome of a store call.
func ObserveStore(op, coll string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StoreOps.WithLabelValues(op, coll, outcome).Observe(time.Since(start).Seconds())
}
