// Package middleware provides net/http middleware for the dropzone server.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus request metrics middleware
//   - slog request logging
//
// All three wrap the response writer without hiding http.Hijacker, so the
// live WebSocket endpoint can sit behind them.
//
// # OpenTelemetry Middleware
//
// Every request gets a server span named after its chi route:
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/metrics"
//	    }),
//	))
//
// The tracer comes from the global OpenTelemetry provider unless
// WithTracerProvider is given.
//
// # Prometheus Metrics
//
// The Prometheus middleware collects:
//   - dropzone_http_requests_total: requests by route, method and status
//   - dropzone_http_request_duration_seconds: duration of non-upgraded requests
//   - dropzone_http_response_bytes_total: body bytes written per route
//   - dropzone_http_upgrades_total: hijacked connections per route
//   - dropzone_http_requests_in_flight: requests being served
//
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Logging
//
//	r.Use(chimw.RequestID)
//	r.Use(middleware.Logger(logger))
package middleware
