// Package middleware provides the HTTP middleware used by the hooks demo
// server.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus request metrics middleware
//   - Request logging and panic recovery on log/slog
//
// # OpenTelemetry Middleware
//
// OpenTelemetry starts a server span for every request. The span carries the
// method, the matched chi route pattern and the response status:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("hooks"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// # Prometheus Metrics
//
// Prometheus records the request count and latency by route pattern:
//   - hooks_http_requests_total: requests by method, route and status
//   - hooks_http_request_duration_seconds: request latency histogram
//
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Route patterns rather than raw paths are used as labels so storage keys do
// not become label values.
package middleware
