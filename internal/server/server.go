package server

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/nahidhasan98/svn-notifier/internal/config"
	"github.com/nahidhasan98/svn-notifier/internal/handlers"
	"github.com/nahidhasan98/svn-notifier/internal/logger"
	"github.com/nahidhasan98/svn-notifier/internal/middleware"
)

// Server represents the HTTP relay server
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	middleware *middleware.Middleware
	cfg        config.ServerConfig
	log        *logger.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config, handler *handlers.Handler, log *logger.Logger) *Server {
	mw := middleware.New(log, cfg.Server.RateLimitPerMinute)
	mw.SetAPIKeys(cfg.Security.APIKeys)

	return &Server{
		handler:    handler,
		middleware: mw,
		cfg:        cfg.Server,
		log:        log,
	}
}

// Handler returns the routed handler wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc("GET /health", s.handler.HealthCheck)
	mux.HandleFunc("POST /notify", s.handler.Notify)

	// Apply middleware chain
	handler := s.middleware.Recovery(mux)
	handler = s.middleware.Logging(handler)
	handler = s.middleware.Security(handler)
	handler = s.middleware.RateLimit(handler)
	handler = s.middleware.APIKeyAuth(handler)

	return handler
}

// Start binds the listen address and serves in the background. Errors after
// the listener is up are sent to errc.
func (s *Server) Start(errc chan<- error) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address(), err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Infof("HTTP server listening on %s", ln.Addr())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errc <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server shutdown complete")
	return nil
}
