// Package http provides the HTTP adapter for the acquisition workflow.
// It translates requests into workflow and service calls and nothing more.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/library-acquisition/internal/application/retry"
	"github.com/garyjia/library-acquisition/internal/application/service"
	appwf "github.com/garyjia/library-acquisition/internal/application/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Services groups the application entry points the handlers call
type Services struct {
	Workflow appwf.AcquisitionWorkflow
	Lists    service.ListService
	Holds    service.HoldsService
	Reports  service.ReportService
	Vendors  service.VendorService
	History  service.HistoryService
}

// ServerOption configures optional server behavior
type ServerOption func(*Server)

// WithMetrics installs a request middleware and serves handler at /metrics
func WithMetrics(middleware gin.HandlerFunc, handler http.Handler) ServerOption {
	return func(s *Server) {
		s.metricsMiddleware = middleware
		s.metricsHandler = handler
	}
}

// WithRetryOptions tunes the conflict retry wrapped around transitions
func WithRetryOptions(opts ...retry.Option) ServerOption {
	return func(s *Server) {
		s.retryOptions = append(s.retryOptions, opts...)
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger

	metricsMiddleware gin.HandlerFunc
	metricsHandler    http.Handler
	retryOptions      []retry.Option
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger, opts ...ServerOption) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(server)
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	if s.metricsMiddleware != nil {
		s.router.Use(s.metricsMiddleware)
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.logger, s.retryOptions...)

	s.router.GET("/health", handlers.HealthCheck)
	if s.metricsHandler != nil {
		s.router.GET("/metrics", gin.WrapH(s.metricsHandler))
	}

	api := s.router.Group("/api")
	{
		acq := api.Group("/acquisitions")
		acq.POST("", handlers.CreateAcquisition)
		acq.GET("", handlers.ListAcquisitions)
		acq.GET("/:id", handlers.GetAcquisition)
		acq.POST("/:id/confirm", handlers.ConfirmAcquisition)
		acq.POST("/:id/receive", handlers.ReceiveAcquisition)
		acq.POST("/:id/cancel", handlers.CancelAcquisition)
		acq.POST("/:id/decline", handlers.DeclineAcquisition)
		acq.POST("/:id/deliver", handlers.DeliverAcquisition)
		acq.GET("/:id/events", handlers.AcquisitionEvents)
		acq.GET("/:id/actions", handlers.AcquisitionActions)

		api.POST("/items/:id/returned", handlers.ItemReturned)
		api.GET("/users/:id/holds", handlers.UserHolds)
		api.GET("/reports/acquisitions.xlsx", handlers.ExportReport)

		api.GET("/vendors", handlers.ListVendors)
		api.POST("/vendors", handlers.CreateVendor)
		api.GET("/vendors/:id", handlers.GetVendor)
	}
}

// Start serves until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.httpServer = nil
	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
