package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
)

// ResultObserver is told the final status of every attempt
type ResultObserver func(channel, template, status string)

// OutboxNotifier records each attempt as PENDING, delegates to next, then
// marks it SENT or FAILED. Outbox write failures are logged, not returned.
type OutboxNotifier struct {
	next     port.Notifier
	repo     port.NotificationRepository
	channel  string
	observer ResultObserver
	logger   *zap.Logger
}

// OutboxOption configures an OutboxNotifier
type OutboxOption func(*OutboxNotifier)

// WithResultObserver reports delivery outcomes, e.g. to metrics
func WithResultObserver(observer ResultObserver) OutboxOption {
	return func(o *OutboxNotifier) {
		o.observer = observer
	}
}

// NewOutboxNotifier wraps next so that its attempts land in repo
func NewOutboxNotifier(next port.Notifier, repo port.NotificationRepository, channel string, logger *zap.Logger, opts ...OutboxOption) *OutboxNotifier {
	o := &OutboxNotifier{
		next:    next,
		repo:    repo,
		channel: channel,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Send records and delivers one notification
func (o *OutboxNotifier) Send(ctx context.Context, template, recipientEmail string, data map[string]interface{}) error {
	record := &entity.NotificationRecord{
		RequestID: requestID(data),
		Template:  template,
		Recipient: recipientEmail,
		Channel:   o.channel,
		Status:    entity.NotificationStatusPending,
	}

	recorded := true
	if err := o.repo.Create(ctx, record); err != nil {
		recorded = false
		o.logger.Error("Failed to record notification", zap.String("template", template), zap.Error(err))
	}

	sendErr := o.next.Send(ctx, template, recipientEmail, data)

	status := entity.NotificationStatusSent
	if sendErr != nil {
		status = entity.NotificationStatusFailed
	}

	if recorded {
		var err error
		if sendErr != nil {
			err = o.repo.MarkFailed(ctx, record.ID, sendErr.Error())
		} else {
			err = o.repo.MarkSent(ctx, record.ID)
		}
		if err != nil {
			o.logger.Error("Failed to update notification status",
				zap.Int64("id", record.ID),
				zap.String("status", status),
				zap.Error(err))
		}
	}

	if o.observer != nil {
		o.observer(o.channel, template, status)
	}

	return sendErr
}

func requestID(data map[string]interface{}) string {
	if v, ok := data["request_id"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

var _ port.Notifier = (*OutboxNotifier)(nil)
