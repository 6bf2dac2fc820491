package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository on the outbox table
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a notification attempt and sets its ID
func (r *NotificationRepository) Create(ctx context.Context, n *entity.NotificationRecord) error {
	query := `
		INSERT INTO notification_outbox (
			request_id, template, recipient, channel, status, error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		n.RequestID,
		n.Template,
		n.Recipient,
		n.Channel,
		n.Status,
		n.ErrorMessage,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("request_id", n.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// MarkSent marks notification as sent
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	query := `
		UPDATE notification_outbox
		SET status = ?, sent_at = ?, error_message = ''
		WHERE id = ?
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.NotificationStatusSent, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification as sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark sent: %w", err)
	}
	return nil
}

// MarkFailed marks notification as failed with the delivery error
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	query := `
		UPDATE notification_outbox
		SET status = ?, error_message = ?
		WHERE id = ?
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.NotificationStatusFailed, errMsg, id)
	if err != nil {
		r.logger.Error("Failed to mark notification as failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark failed: %w", err)
	}
	return nil
}

// ListByRequestID returns every attempt for a request, oldest first
func (r *NotificationRepository) ListByRequestID(ctx context.Context, requestID string) ([]*entity.NotificationRecord, error) {
	query := `
		SELECT id, request_id, template, recipient, channel, status, error_message, sent_at, created_at
		FROM notification_outbox
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var records []*entity.NotificationRecord
	for rows.Next() {
		var n entity.NotificationRecord
		var sentAt sql.NullTime
		if err := rows.Scan(
			&n.ID,
			&n.RequestID,
			&n.Template,
			&n.Recipient,
			&n.Channel,
			&n.Status,
			&n.ErrorMessage,
			&sentAt,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if sentAt.Valid {
			t := sentAt.Time
			n.SentAt = &t
		}
		records = append(records, &n)
	}

	return records, rows.Err()
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
