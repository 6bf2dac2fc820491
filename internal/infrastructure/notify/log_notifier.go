package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
)

// LogNotifier writes rendered messages to the log instead of delivering them
type LogNotifier struct {
	renderer *Renderer
	logger   *zap.Logger
}

// NewLogNotifier creates a notifier for development and tests
func NewLogNotifier(renderer *Renderer, logger *zap.Logger) *LogNotifier {
	return &LogNotifier{renderer: renderer, logger: logger}
}

// Send renders the template and logs it
func (n *LogNotifier) Send(ctx context.Context, template, recipientEmail string, data map[string]interface{}) error {
	subject, body, err := n.renderer.Render(template, data)
	if err != nil {
		return err
	}

	n.logger.Info("Notification",
		zap.String("template", template),
		zap.String("recipient", recipientEmail),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

var _ port.Notifier = (*LogNotifier)(nil)
