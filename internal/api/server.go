package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tabsplit/tabsplit-backend/internal/api/handlers"
	"github.com/tabsplit/tabsplit-backend/internal/api/middleware"
	"github.com/tabsplit/tabsplit-backend/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	svc        *service.OrderService
	metrics    *middleware.HTTPMetrics
}

// NewServer creates a new API server.
// If metrics is nil, request metrics are not recorded and /metrics is not mounted.
func NewServer(cfg Config, svc *service.OrderService, metrics *middleware.HTTPMetrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		svc:     svc,
		metrics: metrics,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))

	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware())
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Orders and lifecycle
		ordersHandler := handlers.NewOrdersHandler(s.svc)
		r.Post("/orders", ordersHandler.Create)
		r.Get("/orders", ordersHandler.List)
		r.Get("/orders/{id}", ordersHandler.Get)
		r.Post("/orders/{id}/items", ordersHandler.AddItem)
		r.Delete("/orders/{id}/items/{itemID}", ordersHandler.RemoveItem)
		r.Post("/orders/{id}/close", ordersHandler.Close)
		r.Post("/orders/{id}/cancel", ordersHandler.Cancel)
		r.Post("/orders/{id}/finalize", ordersHandler.Finalize)

		// Receipt and overrides
		receiptsHandler := handlers.NewReceiptsHandler(s.svc)
		r.Post("/orders/{id}/receipt", receiptsHandler.Attach)
		r.Get("/orders/{id}/receipt", receiptsHandler.Get)
		r.Put("/orders/{id}/receipt/fees", receiptsHandler.UpdateFees)
		r.Put("/orders/{id}/receipt/total", receiptsHandler.UpdateTotal)
		r.Put("/orders/{id}/overrides", receiptsHandler.SetOverrides)
		r.Get("/orders/{id}/overrides", receiptsHandler.GetOverrides)

		// Payments
		paymentsHandler := handlers.NewPaymentsHandler(s.svc)
		r.Put("/orders/{id}/payments", paymentsHandler.Put)
		r.Get("/orders/{id}/payments", paymentsHandler.Get)

		// Split and settlement
		splitHandler := handlers.NewSplitHandler(s.svc)
		r.Get("/orders/{id}/split", splitHandler.GetSplit)
		r.Get("/orders/{id}/settlement", splitHandler.GetSettlement)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
