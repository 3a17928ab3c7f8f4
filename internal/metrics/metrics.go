// Package metrics exposes Prometheus counters for moderation outcomes and
// HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cinereview/backend/internal/models"
)

const namespace = "cinereview"

type Metrics struct {
	gatherer prometheus.Gatherer

	// ReportsCreated counts reports filed by users or the screener.
	ReportsCreated prometheus.Counter
	// ReportsResolved counts closed reports by outcome.
	ReportsResolved *prometheus.CounterVec
	// PenaltiesIssued counts penalties by severity.
	PenaltiesIssued *prometheus.CounterVec
	// HTTPRequests counts requests by route, method and status.
	HTTPRequests *prometheus.CounterVec
	// HTTPLatency tracks request latency by route.
	HTTPLatency *prometheus.HistogramVec
}

// New registers the collectors on reg. Passing prometheus.NewRegistry() keeps
// tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		ReportsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_created_total",
			Help:      "Total number of reports created",
		}),
		ReportsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_resolved_total",
			Help:      "Total number of reports resolved by outcome",
		}, []string{"status"}),
		PenaltiesIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "penalties_issued_total",
			Help:      "Total number of penalties issued by severity",
		}, []string{"severity"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) ReportCreated() {
	m.ReportsCreated.Inc()
}

func (m *Metrics) ReportResolved(status models.ReportStatus) {
	m.ReportsResolved.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) PenaltyIssued(severity models.Severity) {
	m.PenaltiesIssued.WithLabelValues(string(severity)).Inc()
}

// Middleware records every request under its route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
