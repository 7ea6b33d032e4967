// Package server wires the HTTP router and runs it with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/concierge/internal/api/handlers"
	"github.com/Veraticus/concierge/internal/api/middleware"
	"github.com/Veraticus/concierge/internal/config"
)

// Handlers are the endpoints mounted on the router.
type Handlers struct {
	Discovery  http.Handler
	Compliance http.Handler
	Health     *handlers.HealthHandler
}

// Server is the HTTP server of the service.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        config.ServerConfig
}

// NewRouter builds the chi router with the middleware chain.
func NewRouter(h Handlers, logger *slog.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics)
	router.Use(middleware.CORS)
	router.Use(middleware.Recover(logger))

	router.Get("/health/live", h.Health.Live)
	router.Get("/health/ready", h.Health.Ready)
	router.Get("/metrics", h.Health.Metrics)

	router.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/ai-partner-discovery", h.Discovery)
		r.Method(http.MethodPost, "/kyc-aml-checker", h.Compliance)
	})

	return router
}

// New creates a server listening on cfg's port.
func New(cfg config.ServerConfig, logger *slog.Logger, h Handlers) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      NewRouter(h, logger),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: logger,
		cfg:    cfg,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server started", slog.String("addr", s.httpServer.Addr))

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
