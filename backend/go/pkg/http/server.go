package http

import (
	"context"
	"fmt"
	"net/http"

	"tiben-mcp/backend/go/internal/config"
	"tiben-mcp/backend/go/pkg/httpmiddleware"
	"tiben-mcp/backend/go/pkg/logger"
	"tiben-mcp/backend/go/pkg/ratelimiter"
)

// Middleware defines a function to wrap an http.Handler.
type Middleware func(http.Handler) http.Handler

// Server wraps http.Server and applies the configured inbound middleware.
// It hosts the streamable HTTP transport of the MCP server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	log        *logger.Logger
}

// ServerOption defines a function for configuring a Server.
type ServerOption func(*Server)

// WithAddress sets the address for the server to listen on.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// WithLogger enables request logging through l.
func WithLogger(l *logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// NewServer creates a Server. Rate limiting is applied when enabled in cfg.
func NewServer(cfg *config.AppConfig, opts ...ServerOption) (*Server, error) {
	mux := http.NewServeMux()
	srv := &Server{
		httpServer: &http.Server{},
		mux:        mux,
	}
	for _, opt := range opts {
		opt(srv)
	}

	var middlewares []Middleware
	if srv.log != nil {
		middlewares = append(middlewares, httpmiddleware.RequestLog(srv.log))
	}
	if cfg.Middleware.RateLimiter.Enabled {
		limiter, err := createRateLimiter(cfg.Middleware.RateLimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		middlewares = append(middlewares, httpmiddleware.RateLimit(limiter))
	}

	var handler http.Handler = mux
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	srv.httpServer.Handler = handler

	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = ":8085"
	}
	return srv, nil
}

// Handle registers the handler for the given pattern.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	if s.log != nil {
		s.log.Info("Starting server on " + s.httpServer.Addr)
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func createRateLimiter(cfg config.RateLimiterConfig) (ratelimiter.RateLimiter, error) {
	tb := cfg.TokenBucket
	if tb.Rate <= 0 || tb.Capacity <= 0 {
		return nil, fmt.Errorf("invalid token bucket settings: rate=%v capacity=%d", tb.Rate, tb.Capacity)
	}
	return ratelimiter.NewTokenBucket(tb.Rate, tb.Capacity), nil
}
