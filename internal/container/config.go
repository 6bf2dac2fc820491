// Package container provides dependency injection and lifecycle management
// for the acquisition service.
package container

import (
	"fmt"
	"time"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported notification channels
const (
	ChannelLog  = "log"
	ChannelLark = "lark"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database     DatabaseConfig
	Notification NotificationConfig
	Server       ServerConfig
	Metrics      MetricsConfig
	Workflow     WorkflowConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver selects the store: sqlite or postgres
	Driver string

	// Path to SQLite database file, or ":memory:"
	Path string

	// DSN is the PostgreSQL connection string
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NotificationConfig holds patron notification settings.
type NotificationConfig struct {
	// Channel is log or lark
	Channel string

	LarkAppID     string
	LarkAppSecret string

	// LarkReceiveIDType is how patron addresses map to Lark users
	LarkReceiveIDType string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// WorkflowConfig tunes how transitions retry lost concurrency races.
type WorkflowConfig struct {
	ConflictRetryAttempts  int
	ConflictRetryBaseDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			Path:            "data/acquisitions.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Notification: NotificationConfig{
			Channel:           ChannelLog,
			LarkReceiveIDType: "email",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Workflow: WorkflowConfig{
			ConflictRetryAttempts:  4,
			ConflictRetryBaseDelay: 10 * time.Millisecond,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}

	switch c.Notification.Channel {
	case ChannelLog:
	case ChannelLark:
		if c.Notification.LarkAppID == "" {
			return fmt.Errorf("notification.lark.app_id is required")
		}
		if c.Notification.LarkAppSecret == "" {
			return fmt.Errorf("notification.lark.app_secret is required")
		}
	default:
		return fmt.Errorf("notification.channel must be %q or %q, got %q", ChannelLog, ChannelLark, c.Notification.Channel)
	}

	if c.Workflow.ConflictRetryAttempts <= 0 {
		return fmt.Errorf("workflow.conflict_retry_attempts must be positive")
	}
	if c.Workflow.ConflictRetryBaseDelay < 0 {
		return fmt.Errorf("workflow.conflict_retry_base_delay must not be negative")
	}

	return nil
}
