package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cardguard/cardguard-backend/internal/infrastructure/cache"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/config"
)

// Server is the HTTP front of the scoring service.
type Server struct {
	cfg        *config.Config
	handler    *Handler
	auth       *AuthMiddleware
	limiter    cache.RateLimiter
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer assembles the server from already-wired dependencies.
// limiter may be nil, in which case rate limiting is disabled.
func NewServer(cfg *config.Config, handler *Handler, auth *AuthMiddleware, limiter cache.RateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		handler: handler,
		auth:    auth,
		limiter: limiter,
		logger:  logger,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handler.handleHealth)

	v1 := http.NewServeMux()
	v1.HandleFunc("POST /analyses", s.handler.handleAnalyzeTransaction)
	v1.HandleFunc("GET /analyses", s.handler.handleListAnalyses)
	v1.HandleFunc("DELETE /analyses", s.handler.handleDeleteAnalyses)
	v1.HandleFunc("GET /analyses/{id}", s.handler.handleGetAnalysis)
	v1.HandleFunc("DELETE /analyses/{id}", s.handler.handleDeleteAnalysis)
	v1.HandleFunc("GET /reference/catalog", s.handler.handleReferenceCatalog)

	protected := chain(http.StripPrefix("/api/v1", v1),
		s.auth.Middleware,
		rateLimitMiddleware(s.limiter, s.cfg.Security.RateLimit.RequestsPerMinute),
	)
	mux.Handle("/api/v1/", protected)

	return chain(mux,
		recoveryMiddleware,
		loggingMiddleware,
		metricsMiddleware(s.handler.registry),
	)
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown() error {
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// TestHandler exposes the composed handler stack for tests.
func (s *Server) TestHandler() http.Handler {
	return s.routes()
}
