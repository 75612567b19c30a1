package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the application. Each collector
// owns its registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	PostsCreated        prometheus.Counter
	ConnectionRequests  prometheus.Counter
	ConnectionsAccepted prometheus.Counter
	ResumesTailored     prometheus.Counter

	// Email metrics
	EmailsSent    *prometheus.CounterVec
	EmailsDropped prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a collector with all metrics registered
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_created_total",
			Help:      "Total number of posts created",
		}),
		ConnectionRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_requests_total",
			Help:      "Total number of connection requests created",
		}),
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted connection requests",
		}),
		ResumesTailored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resumes_tailored_total",
			Help:      "Total number of tailored resumes produced",
		}),
		EmailsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emails_sent_total",
				Help:      "Email send attempts by outcome",
			},
			[]string{"category", "status"},
		),
		EmailsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_dropped_total",
			Help:      "Emails dropped because the queue was full",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.PostsCreated,
		c.ConnectionRequests,
		c.ConnectionsAccepted,
		c.ResumesTailored,
		c.EmailsSent,
		c.EmailsDropped,
		c.CacheHits,
		c.CacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Middleware records request count and latency labelled by chi route pattern
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// The Record methods are safe on a nil collector so components can run
// without metrics.

// RecordPostCreated counts a new post
func (c *Collector) RecordPostCreated() {
	if c != nil {
		c.PostsCreated.Inc()
	}
}

// RecordConnectionRequest counts a newly created connection request
func (c *Collector) RecordConnectionRequest() {
	if c != nil {
		c.ConnectionRequests.Inc()
	}
}

// RecordConnectionAccepted counts an accepted connection request
func (c *Collector) RecordConnectionAccepted() {
	if c != nil {
		c.ConnectionsAccepted.Inc()
	}
}

// RecordResumeTailored counts a stored tailored resume
func (c *Collector) RecordResumeTailored() {
	if c != nil {
		c.ResumesTailored.Inc()
	}
}

// EmailSent records the outcome of one delivery attempt
func (c *Collector) EmailSent(category string, err error) {
	if c == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	c.EmailsSent.WithLabelValues(category, status).Inc()
}

// EmailDropped counts an email rejected by a full queue
func (c *Collector) EmailDropped() {
	if c != nil {
		c.EmailsDropped.Inc()
	}
}
