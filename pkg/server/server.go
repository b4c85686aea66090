package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/hooks/pkg/middleware"
	"github.com/vango-dev/hooks/pkg/storage"
)

// Server is the demo HTTP/WebSocket server. It exposes a storage medium
// through the hooks: values over REST, the theme preference, a query-param
// page and a change feed.
type Server struct {
	config *Config
	medium storage.Medium

	router   chi.Router
	registry *prometheus.Registry
	tracer   trace.TracerProvider

	upgrader websocket.Upgrader

	httpServer *http.Server
	logger     *slog.Logger

	// done is closed by Shutdown; it ends hijacked websocket connections,
	// which http.Server.Shutdown does not track.
	done     chan struct{}
	doneOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the registry request metrics are registered on and
// /metrics is served from. Storage metrics registered on the same registry
// show up there too.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithTracerProvider sets the provider used for request spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracer = tp
	}
}

// New creates a Server over medium. A nil config uses DefaultConfig.
func New(medium storage.Medium, config *Config, opts ...Option) *Server {
	s := &Server{
		config: config.withDefaults(),
		medium: medium,
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	otelOpts := []middleware.OTelOption{
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics" && r.URL.Path != "/healthz"
		}),
	}
	if s.tracer != nil {
		otelOpts = append(otelOpts, middleware.WithTracerProvider(s.tracer))
	}

	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Logger(s.logger),
		middleware.Prometheus(middleware.WithRegistry(s.registry)),
		middleware.OpenTelemetry(otelOpts...),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/values", s.handleListValues)
		r.Get("/values/{key}", s.handleGetValue)
		r.Put("/values/{key}", s.handlePutValue)
		r.Delete("/values/{key}", s.handleDeleteValue)

		r.Get("/theme", s.handleGetTheme)
		r.Put("/theme", s.handlePutTheme)
		r.Post("/theme/toggle", s.handleToggleTheme)
	})

	r.Get("/search", s.handleSearch)
	r.Get("/ws/values", s.handleWatch)

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts the server and blocks until ctx is done, an interrupt or
// SIGTERM arrives, or the listener fails. It shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.doneOnce.Do(func() { close(s.done) })

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Config returns the effective server configuration.
func (s *Server) Config() *Config {
	return s.config
}
