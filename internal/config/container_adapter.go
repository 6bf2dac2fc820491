package config

import (
	"github.com/garyjia/library-acquisition/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Notification: container.NotificationConfig{
			Channel:           c.Notification.Channel,
			LarkAppID:         c.Notification.Lark.AppID,
			LarkAppSecret:     c.Notification.Lark.AppSecret,
			LarkReceiveIDType: c.Notification.Lark.ReceiveIDType,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
		},
		Metrics: container.MetricsConfig{
			Enabled: c.Metrics.Enabled,
		},
		Workflow: container.WorkflowConfig{
			ConflictRetryAttempts:  c.Workflow.ConflictRetryAttempts,
			ConflictRetryBaseDelay: c.Workflow.ConflictRetryBaseDelay,
		},
	}
}
