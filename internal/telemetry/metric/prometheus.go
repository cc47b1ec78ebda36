package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kvmesh"

// Registry holds all application metrics.
//
// All recording methods are safe on a nil *Registry, so components can
// run without metrics wired.
type Registry struct {
	registry *prometheus.Registry

	// Connection metrics
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	DecodeErrors    *prometheus.CounterVec
	RateLimitWaits  prometheus.Counter

	// Pub/sub metrics
	NotificationsSent prometheus.Counter
	DeliveryFailures  prometheus.Counter

	// HTTP side server metrics
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with Go runtime and process
// collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of executed commands.",
		}, []string{"command"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution latency, including subscriber fan-out.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"command"}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Frames discarded because they failed to lex or parse.",
		}, []string{"kind"}),
		RateLimitWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_waits_total",
			Help:      "Batches delayed by the per-connection command rate limit.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications queued to subscribers.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Notifications that could not be queued; the subscriber was pruned.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests served by the HTTP side server.",
		}, []string{"method", "path", "status"}),
	}

	reg.MustRegister(
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.CommandsTotal,
		r.CommandDuration,
		r.DecodeErrors,
		r.RateLimitWaits,
		r.NotificationsSent,
		r.DeliveryFailures,
		r.HTTPRequestsTotal,
	)
	return r
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Register adds an extra collector to the registry.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Gatherer exposes the underlying registry for tests and tooling.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records a finished connection.
func (r *Registry) ConnClosed() {
	if r == nil {
		return
	}
	r.ConnectionsActive.Dec()
}

// ObserveCommand records one executed command.
func (r *Registry) ObserveCommand(command string, d time.Duration) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(command).Inc()
	r.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// DecodeFailed records a discarded frame.
func (r *Registry) DecodeFailed(kind string) {
	if r == nil {
		return
	}
	r.DecodeErrors.WithLabelValues(kind).Inc()
}

// RateLimited records a batch that had to wait for the rate limiter.
func (r *Registry) RateLimited() {
	if r == nil {
		return
	}
	r.RateLimitWaits.Inc()
}

// NotificationSent records a queued notification.
func (r *Registry) NotificationSent() {
	if r == nil {
		return
	}
	r.NotificationsSent.Inc()
}

// DeliveryFailed records a notification that could not be queued.
func (r *Registry) DeliveryFailed() {
	if r == nil {
		return
	}
	r.DeliveryFailures.Inc()
}

// RecordHTTPRequest records one request served by the HTTP side server.
func (r *Registry) RecordHTTPRequest(method, path, status string) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}
