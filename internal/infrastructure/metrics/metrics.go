// Package metrics exposes Prometheus counters for the acquisition workflow.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/library-acquisition/internal/application/dispatcher"
	"github.com/garyjia/library-acquisition/internal/domain/event"
)

const namespace = "acquisition"

// Collector owns the workflow metrics and the registry they live in
type Collector struct {
	registry *prometheus.Registry

	events          *prometheus.CounterVec
	conflictRetries prometheus.Counter
	notifications   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// NewCollector registers every metric on a fresh registry, together with the
// Go runtime and process collectors
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Committed audit events by type",
		}, []string{"type"}),
		conflictRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_retries_total",
			Help:      "Transitions retried after losing a concurrent write",
		}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by channel, template and outcome",
		}, []string{"channel", "template", "status"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "code"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Subscribe counts every event published by d
func (c *Collector) Subscribe(d dispatcher.Dispatcher) {
	d.SubscribeAll("metrics", func(ctx context.Context, evt *event.Event) error {
		c.events.WithLabelValues(string(evt.Type)).Inc()
		return nil
	})
}

// ObserveConflictRetry matches retry.Observer
func (c *Collector) ObserveConflictRetry(attempt int, err error) {
	c.conflictRetries.Inc()
}

// ObserveNotification matches notify.ResultObserver
func (c *Collector) ObserveNotification(channel, template, status string) {
	c.notifications.WithLabelValues(channel, template, status).Inc()
}

// Middleware records request counts and latency per matched route
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		timer := prometheus.NewTimer(c.httpLatency.WithLabelValues(ctx.Request.Method, route))
		ctx.Next()
		timer.ObserveDuration()

		c.httpRequests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
	}
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
