// Package metrics provides Prometheus instrumentation for the anonymization
// engine and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Collector owns the Prometheus registry and the engine/HTTP collectors. It
// implements the engine's Recorder interface.
type Collector struct {
	logger   *logrus.Logger
	registry *prometheus.Registry

	runsTotal           *prometheus.CounterVec
	runDuration         *prometheus.HistogramVec
	generalizationSteps *prometheus.CounterVec
	suppressedRows      *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector creates and registers all collectors on a fresh registry.
func NewCollector(logger *logrus.Logger) *Collector {
	if logger == nil {
		logger = logrus.New()
	}

	c := &Collector{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabanon",
			Name:      "anonymization_runs_total",
			Help:      "Total anonymization runs by method and outcome",
		}, []string{"method", "outcome"}),

		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabanon",
			Name:      "anonymization_run_duration_seconds",
			Help:      "Anonymization run duration by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		generalizationSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabanon",
			Name:      "generalization_steps_total",
			Help:      "Generalization steps by method and attribute",
		}, []string{"method", "attribute"}),

		suppressedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabanon",
			Name:      "suppressed_rows_total",
			Help:      "Rows suppressed by method",
		}, []string{"method"}),

		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabanon",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),

		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabanon",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method and path",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	c.registry.MustRegister(
		c.runsTotal,
		c.runDuration,
		c.generalizationSteps,
		c.suppressedRows,
		c.httpRequestsTotal,
		c.httpRequestDuration,
	)

	return c
}

// RecordRun records the outcome and duration of one anonymization run.
func (c *Collector) RecordRun(method, outcome string, duration time.Duration) {
	c.runsTotal.WithLabelValues(method, outcome).Inc()
	c.runDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordGeneralization records one generalization step.
func (c *Collector) RecordGeneralization(method, attribute string) {
	c.generalizationSteps.WithLabelValues(method, attribute).Inc()
}

// RecordSuppression records suppressed rows.
func (c *Collector) RecordSuppression(method string, rows int) {
	c.suppressedRows.WithLabelValues(method).Add(float64(rows))
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns the /metrics HTTP handler for this registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
