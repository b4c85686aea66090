package fetch

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vango-dev/hooks/pkg/telemetry"
)

type config struct {
	client  *http.Client
	timeout time.Duration
	header  http.Header
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// Option configures a Resource.
type Option func(*config)

// WithClient sets the HTTP client. The default client traces requests with
// OpenTelemetry.
func WithClient(c *http.Client) Option {
	return func(cfg *config) {
		cfg.client = c
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) Option {
	return func(cfg *config) {
		cfg.header.Add(key, value)
	}
}

// WithMetrics records request counts and durations.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// DefaultClient is used when no client is configured.
var DefaultClient = &http.Client{
	Transport: otelhttp.NewTransport(http.DefaultTransport),
}

func newConfig(opts []Option) config {
	cfg := config{
		client: DefaultClient,
		header: make(http.Header),
		logger: slog.Default(),
	}
	cfg.header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
