package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/dispatcher"
	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/application/retry"
	"github.com/garyjia/library-acquisition/internal/application/service"
	"github.com/garyjia/library-acquisition/internal/application/workflow"
	"github.com/garyjia/library-acquisition/internal/infrastructure/metrics"
	"github.com/garyjia/library-acquisition/internal/infrastructure/notify"
	"github.com/garyjia/library-acquisition/internal/infrastructure/persistence/postgres"
	"github.com/garyjia/library-acquisition/internal/infrastructure/persistence/repository"
	"github.com/garyjia/library-acquisition/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/garyjia/library-acquisition/internal/interfaces/http"
	"github.com/garyjia/library-acquisition/migrations"
	"github.com/garyjia/library-acquisition/pkg/database"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseBundle holds the opened store and its lifecycle hooks.
type DatabaseBundle struct {
	Repos *RepositoryBundle
	Ping  func(ctx context.Context) error
	Close func() error
}

// ProvideDatabase opens the configured store, applies pending migrations
// and builds the repositories on top of it.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case DriverPostgres:
		return providePostgres(ctx, cfg, logger)
	case DriverSQLite, "":
		return provideSQLite(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func provideSQLite(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).RunMigrations(migrations.FS, migrations.SQLiteDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("SQLite migrations applied", zap.Int("count", applied))

	txDB := sqlite.NewDB(db.DB, logger)

	return &DatabaseBundle{
		Repos: &RepositoryBundle{
			Acquisitions:  repository.NewAcquisitionRepository(txDB, logger),
			Events:        repository.NewEventRepository(txDB, logger),
			Vendors:       repository.NewVendorRepository(txDB, logger),
			Catalog:       repository.NewCatalogRepository(txDB, logger),
			Notifications: repository.NewNotificationRepository(txDB, logger),
			Provisioner:   repository.NewItemProvisioner(txDB, logger),
			TxManager:     txDB,
		},
		Ping:  db.PingContext,
		Close: db.Close,
	}, nil
}

func providePostgres(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	store, err := postgres.NewStore(ctx, cfg.DSN, postgres.PoolConfig{
		MaxConns:        int32(cfg.MaxOpenConns),
		MinConns:        int32(cfg.MaxIdleConns),
		MaxConnLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := store.Migrate(ctx, migrations.FS, migrations.PostgresDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("PostgreSQL migrations applied", zap.Int("count", applied))

	return &DatabaseBundle{
		Repos: &RepositoryBundle{
			Acquisitions:  postgres.NewAcquisitionRepository(store, logger),
			Events:        postgres.NewEventRepository(store, logger),
			Vendors:       postgres.NewVendorRepository(store, logger),
			Catalog:       postgres.NewCatalogRepository(store, logger),
			Notifications: postgres.NewNotificationRepository(store, logger),
			Provisioner:   postgres.NewItemProvisioner(store, logger),
			TxManager:     store,
		},
		Ping: store.Pool.Ping,
		Close: func() error {
			store.Close()
			return nil
		},
	}, nil
}

// ProvideNotifier builds the configured channel and wraps it in the outbox.
// observer may be nil.
func ProvideNotifier(cfg *NotificationConfig, outbox port.NotificationRepository, observer notify.ResultObserver, logger *zap.Logger) (port.Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notification config is required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("notification repository is required")
	}

	renderer, err := notify.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification templates: %w", err)
	}

	var channel port.Notifier
	switch cfg.Channel {
	case ChannelLark:
		api := notify.NewMessageAPI(notify.LarkConfig{
			AppID:         cfg.LarkAppID,
			AppSecret:     cfg.LarkAppSecret,
			ReceiveIDType: cfg.LarkReceiveIDType,
		}, logger)
		channel = notify.NewLarkNotifier(api, renderer, cfg.LarkReceiveIDType, logger)
	case ChannelLog, "":
		channel = notify.NewLogNotifier(renderer, logger)
	default:
		return nil, fmt.Errorf("unsupported notification channel %q", cfg.Channel)
	}

	name := cfg.Channel
	if name == "" {
		name = ChannelLog
	}

	var opts []notify.OutboxOption
	if observer != nil {
		opts = append(opts, notify.WithResultObserver(observer))
	}
	return notify.NewOutboxNotifier(channel, outbox, name, logger, opts...), nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}),
	), nil
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	Notifier   port.Notifier
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the acquisition workflow.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.AcquisitionWorkflow, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []workflow.EngineOption{
		workflow.WithLogger(&zapLoggerAdapter{logger: deps.Logger}),
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}

	return workflow.NewEngine(
		deps.Repos.Acquisitions,
		deps.Repos.Events,
		deps.Repos.Provisioner,
		deps.Repos.Vendors,
		deps.Repos.TxManager,
		deps.Notifier,
		opts...,
	), nil
}

// ProvideServices creates the read-side and reference-data services.
func ProvideServices(repos *RepositoryBundle, logger *zap.Logger) (*ServiceBundle, error) {
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: logger}

	return &ServiceBundle{
		Lists:   service.NewListService(repos.Acquisitions, serviceLogger),
		Holds:   service.NewHoldsService(repos.Acquisitions, serviceLogger),
		Reports: service.NewReportService(repos.Acquisitions, serviceLogger),
		Vendors: service.NewVendorService(repos.Vendors, serviceLogger),
		History: service.NewHistoryService(repos.Acquisitions, repos.Events, repos.Notifications),
	}, nil
}

// ServerDeps holds dependencies required for the HTTP server.
type ServerDeps struct {
	Config    *ServerConfig
	Workflow  workflow.AcquisitionWorkflow
	Services  *ServiceBundle
	Retry     *WorkflowConfig
	Collector *metrics.Collector
	Logger    *zap.Logger
}

// ProvideHTTPServer wires handlers, conflict retry and optional metrics.
func ProvideHTTPServer(deps *ServerDeps) (*httpapi.Server, error) {
	if deps == nil || deps.Config == nil || deps.Services == nil || deps.Retry == nil {
		return nil, fmt.Errorf("server dependencies are required")
	}
	if deps.Workflow == nil {
		return nil, fmt.Errorf("workflow is required")
	}

	retryOpts := []retry.Option{
		retry.WithMaxAttempts(deps.Retry.ConflictRetryAttempts),
		retry.WithBaseDelay(deps.Retry.ConflictRetryBaseDelay),
	}
	opts := []httpapi.ServerOption{}
	if deps.Collector != nil {
		retryOpts = append(retryOpts, retry.WithObserver(deps.Collector.ObserveConflictRetry))
		opts = append(opts, httpapi.WithMetrics(deps.Collector.Middleware(), deps.Collector.Handler()))
	}
	opts = append(opts, httpapi.WithRetryOptions(retryOpts...))

	return httpapi.NewServer(
		httpapi.ServerConfig{
			Host:            deps.Config.Host,
			Port:            deps.Config.Port,
			ReadTimeout:     deps.Config.ReadTimeout,
			WriteTimeout:    deps.Config.WriteTimeout,
			ShutdownTimeout: deps.Config.ShutdownTimeout,
		},
		httpapi.Services{
			Workflow: deps.Workflow,
			Lists:    deps.Services.Lists,
			Holds:    deps.Services.Holds,
			Reports:  deps.Services.Reports,
			Vendors:  deps.Services.Vendors,
			History:  deps.Services.History,
		},
		&zapLoggerAdapter{logger: deps.Logger},
		opts...,
	), nil
}
