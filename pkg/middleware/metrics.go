package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metricsOptions struct {
	namespace   string
	subsystem   string
	constLabels prometheus.Labels
	buckets     []float64
	registry    prometheus.Registerer
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*metricsOptions)

// WithNamespace overrides the "dropzone" metric namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(o *metricsOptions) { o.namespace = namespace }
}

// WithSubsystem overrides the "http" metric subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(o *metricsOptions) { o.subsystem = subsystem }
}

// WithConstLabels adds labels to every collector.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(o *metricsOptions) { o.constLabels = labels }
}

// WithBuckets sets the request duration buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(o *metricsOptions) { o.buckets = buckets }
}

// WithRegistry registers the collectors on registry instead of
// prometheus.DefaultRegisterer.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(o *metricsOptions) { o.registry = registry }
}

// Metrics holds the HTTP request collectors.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseBytes   *prometheus.CounterVec
	upgradesTotal   *prometheus.CounterVec
	inFlight        prometheus.Gauge
}

// NewMetrics registers the HTTP collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	o := metricsOptions{
		namespace: "dropzone",
		subsystem: "http",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&o)
	}
	factory := promauto.With(o.registry)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "requests_total",
			Help:        "HTTP requests by route, method and status.",
			ConstLabels: o.constLabels,
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "request_duration_seconds",
			Help:        "Duration of HTTP requests that did not upgrade.",
			ConstLabels: o.constLabels,
			Buckets:     o.buckets,
		}, []string{"route", "method"}),

		responseBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "response_bytes_total",
			Help:        "Response body bytes written, by route.",
			ConstLabels: o.constLabels,
		}, []string{"route"}),

		upgradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "upgrades_total",
			Help:        "Connections hijacked for a protocol upgrade, by route.",
			ConstLabels: o.constLabels,
		}, []string{"route"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "requests_in_flight",
			Help:        "Requests being served, including open live connections.",
			ConstLabels: o.constLabels,
		}),
	}
}

// Handler records every request under its chi route pattern, so paths with
// IDs share one series. Upgraded connections are counted in upgrades_total
// and left out of the duration histogram.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		sw := wrapWriter(w)
		next.ServeHTTP(sw, r)

		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(sw.Status())).Inc()
		if sw.hijacked {
			m.upgradesTotal.WithLabelValues(route).Inc()
			return
		}
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		m.responseBytes.WithLabelValues(route).Add(float64(sw.bytes))
	})
}

// Prometheus is NewMetrics(opts...).Handler.
func Prometheus(opts ...MetricsOption) func(http.Handler) http.Handler {
	return NewMetrics(opts...).Handler
}

// routePattern returns the matched chi route, or "unmatched".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
