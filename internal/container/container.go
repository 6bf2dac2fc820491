package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/dispatcher"
	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/application/service"
	"github.com/garyjia/library-acquisition/internal/application/workflow"
	"github.com/garyjia/library-acquisition/internal/infrastructure/metrics"
	"github.com/garyjia/library-acquisition/internal/infrastructure/notify"
	httpapi "github.com/garyjia/library-acquisition/internal/interfaces/http"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	database  *DatabaseBundle
	notifier  port.Notifier
	collector *metrics.Collector

	// Application
	dispatcher dispatcher.Dispatcher
	workflow   workflow.AcquisitionWorkflow
	services   *ServiceBundle

	// Interfaces
	server *httpapi.Server

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups the store-backed ports for convenient access.
type RepositoryBundle struct {
	Acquisitions  port.AcquisitionRepository
	Events        port.EventLog
	Vendors       port.VendorRepository
	Catalog       port.CatalogRepository
	Notifications port.NotificationRepository
	Provisioner   port.ItemProvisioner
	TxManager     port.TransactionManager
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Lists   service.ListService
	Holds   service.HoldsService
	Reports service.ReportService
	Vendors service.VendorService
	History service.HistoryService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database, migrations and repositories
// 2. Metrics collector
// 3. Notifier wrapped in the outbox
// 4. Event dispatcher and workflow engine
// 5. Application services
// 6. HTTP server (constructed, not listening)
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	db, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.database = db
	c.logger.Info("Database initialized", zap.String("driver", c.config.Database.Driver))

	var observer notify.ResultObserver
	if c.config.Metrics.Enabled {
		c.collector = metrics.NewCollector()
		observer = c.collector.ObserveNotification
	}

	c.notifier, err = ProvideNotifier(&c.config.Notification, db.Repos.Notifications, observer, c.logger)
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize notifier: %w", err))
	}
	c.logger.Info("Notifier initialized", zap.String("channel", c.config.Notification.Channel))

	c.dispatcher, err = ProvideDispatcher(c.logger)
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize dispatcher: %w", err))
	}
	if c.collector != nil {
		c.collector.Subscribe(c.dispatcher)
	}

	c.workflow, err = ProvideWorkflowEngine(&WorkflowDeps{
		Repos:      db.Repos,
		Notifier:   c.notifier,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize workflow: %w", err))
	}
	c.logger.Info("Dispatcher and workflow engine initialized")

	c.services, err = ProvideServices(db.Repos, c.logger)
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize services: %w", err))
	}

	c.server, err = ProvideHTTPServer(&ServerDeps{
		Config:    &c.config.Server,
		Workflow:  c.workflow,
		Services:  c.services,
		Retry:     &c.config.Workflow,
		Collector: c.collector,
		Logger:    c.logger,
	})
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize http server: %w", err))
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// abort releases what a failed Start already opened
func (c *Container) abort(err error) error {
	if c.dispatcher != nil {
		_ = c.dispatcher.Close()
		c.dispatcher = nil
	}
	if c.database != nil {
		_ = c.database.Close()
		c.database = nil
	}
	return err
}

// Close gracefully shuts down all components in reverse order.
// The dispatcher drains in-flight async handlers before the database closes.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			c.logger.Error("Failed to stop http server", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.database != nil {
		if err := c.database.Ping(ctx); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.workflow != nil {
		status.Components["workflow"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["workflow"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

// Workflow returns the acquisition workflow.
func (c *Container) Workflow() workflow.AcquisitionWorkflow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workflow
}

// Repositories returns the store-backed ports.
func (c *Container) Repositories() *RepositoryBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.database == nil {
		return nil
	}
	return c.database.Repos
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services
}

// Server returns the HTTP server adapter.
func (c *Container) Server() *httpapi.Server {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// zapLoggerAdapter adapts zap.Logger to the Logger interfaces of the
// application and interface layers.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
