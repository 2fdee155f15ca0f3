package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lifesync-ledger/internal/api_gateway/handler"
	"github.com/lifesync-ledger/internal/api_gateway/middleware"
	"github.com/lifesync-ledger/internal/api_gateway/service"
	"github.com/lifesync-ledger/internal/config"
	"github.com/lifesync-ledger/internal/platform/metrics"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services.
// A nil idempotency store disables Idempotency-Key handling.
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	contactService service.ContactService,
	activityService service.ActivityService,
	idempotency middleware.IdempotencyStore,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	contactHandler := handler.NewContactHandler(log, contactService, activityService)

	setupRouter(log, httpRouter, routerDeps{
		verifier:    middleware.NewTokenVerifier(cfg.Auth.JWTSecret),
		cookieName:  cfg.Auth.CookieName,
		idempotency: idempotency,
		metrics:     m,
		gatherer:    gatherer,
	}, contactHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the configured router
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting for in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
