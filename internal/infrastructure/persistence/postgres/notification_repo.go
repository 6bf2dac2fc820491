package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
)

// NotificationRepository implements port.NotificationRepository on the outbox table
type NotificationRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(store *Store, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{store: store, logger: logger}
}

// Create records a notification attempt and sets its ID
func (r *NotificationRepository) Create(ctx context.Context, n *entity.NotificationRecord) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}

	err := r.store.executor(ctx).QueryRow(ctx, `
		INSERT INTO notification_outbox (request_id, template, recipient, channel, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		n.RequestID, n.Template, n.Recipient, n.Channel, n.Status, n.ErrorMessage, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.String("request_id", n.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// MarkSent marks notification as sent
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.store.executor(ctx).Exec(ctx,
		"UPDATE notification_outbox SET status = $1, sent_at = $2, error_message = '' WHERE id = $3",
		entity.NotificationStatusSent, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification as sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark sent: %w", err)
	}
	return nil
}

// MarkFailed marks notification as failed with the delivery error
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := r.store.executor(ctx).Exec(ctx,
		"UPDATE notification_outbox SET status = $1, error_message = $2 WHERE id = $3",
		entity.NotificationStatusFailed, errMsg, id)
	if err != nil {
		r.logger.Error("Failed to mark notification as failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark failed: %w", err)
	}
	return nil
}

// ListByRequestID returns every attempt for a request, oldest first
func (r *NotificationRepository) ListByRequestID(ctx context.Context, requestID string) ([]*entity.NotificationRecord, error) {
	rows, err := r.store.executor(ctx).Query(ctx, `
		SELECT id, request_id, template, recipient, channel, status, error_message, sent_at, created_at
		FROM notification_outbox
		WHERE request_id = $1
		ORDER BY id ASC`, requestID)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var records []*entity.NotificationRecord
	for rows.Next() {
		var n entity.NotificationRecord
		if err := rows.Scan(&n.ID, &n.RequestID, &n.Template, &n.Recipient, &n.Channel, &n.Status, &n.ErrorMessage, &n.SentAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		records = append(records, &n)
	}
	return records, rows.Err()
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
