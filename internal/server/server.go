package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/server/handler"
	"github.com/alanyoungcy/arbscanner/internal/server/middleware"
	"github.com/alanyoungcy/arbscanner/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port               int
	CORSOrigins        []string
	APIKey             string // if empty, authentication is disabled
	RateLimitPerMinute int    // 0 disables rate limiting

	// WriteTimeout bounds non-scan responses; 0 means 60s. The fresh scan
	// routes clear it per request.
	WriteTimeout time.Duration
}

const defaultWriteTimeout = 60 * time.Second

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health        *handler.HealthHandler
	Opportunities *handler.OpportunityHandler
	Stakes        *handler.StakesHandler
}

// Option configures optional server components.
type Option func(*options)

type options struct {
	hub     *ws.Hub
	metrics http.Handler
	limiter domain.RateLimiter
}

// WithHub mounts the websocket hub at GET /ws.
func WithHub(h *ws.Hub) Option {
	return func(o *options) { o.hub = h }
}

// WithMetrics mounts a Prometheus handler at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(o *options) { o.metrics = h }
}

// WithRateLimiter enables per-client rate limiting on every request.
func WithRateLimiter(l domain.RateLimiter) Option {
	return func(o *options) { o.limiter = l }
}

// publicPaths bypass API key authentication.
var publicPaths = []string{"/api/health", "/metrics"}

// Server is the HTTP + WebSocket API server of the scanner.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on a ServeMux and
// wrapped in logging, CORS, auth and (optionally) rate limiting.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger, opts ...Option) *Server {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/opportunities", handlers.Opportunities.CrossVenue)
	mux.HandleFunc("GET /api/opportunities/latest", handlers.Opportunities.LatestCrossVenue)
	mux.HandleFunc("GET /api/polymarket-opportunities", handlers.Opportunities.SingleVenue)
	mux.HandleFunc("GET /api/polymarket-opportunities/latest", handlers.Opportunities.LatestSingleVenue)

	mux.HandleFunc("POST /api/stakes", handlers.Stakes.Allocate)

	if o.hub != nil {
		mux.HandleFunc("GET /ws", o.hub.HandleWS)
	}
	if o.metrics != nil {
		mux.Handle("GET /metrics", o.metrics)
	}

	// Wrapped innermost first, so Logging runs first on every request.
	var h http.Handler = mux
	if o.limiter != nil && cfg.RateLimitPerMinute > 0 {
		h = middleware.RateLimit(o.limiter, cfg.RateLimitPerMinute, time.Minute, logger)(h)
	}
	h = middleware.Auth(cfg.APIKey, publicPaths...)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.Logging(logger)(h)

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		handler:    h,
		logger:     logger,
	}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
