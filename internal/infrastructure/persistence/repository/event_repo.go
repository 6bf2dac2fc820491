package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/event"
	"github.com/garyjia/library-acquisition/internal/infrastructure/persistence/sqlite"
)

// EventRepository implements port.EventLog on the acquisition_events table
type EventRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sqlite.DB, logger *zap.Logger) *EventRepository {
	return &EventRepository{
		db:     db,
		logger: logger,
	}
}

// Append adds an event to the audit trail
func (r *EventRepository) Append(ctx context.Context, evt *event.Event) error {
	query := `
		INSERT INTO acquisition_events (
			id, type, request_id, user_id, item_id, description, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		evt.ID,
		string(evt.Type),
		evt.RequestID,
		evt.UserID,
		evt.ItemID,
		evt.Description,
		evt.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append event",
			zap.String("request_id", evt.RequestID),
			zap.String("type", string(evt.Type)),
			zap.Error(err))
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

// ListByRequestID returns a request's events in the order they were appended
func (r *EventRepository) ListByRequestID(ctx context.Context, requestID string) ([]*event.Event, error) {
	query := `
		SELECT id, type, request_id, user_id, item_id, description, timestamp
		FROM acquisition_events
		WHERE request_id = ?
		ORDER BY seq ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list events", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		var evt event.Event
		var eventType string
		if err := rows.Scan(
			&evt.ID,
			&eventType,
			&evt.RequestID,
			&evt.UserID,
			&evt.ItemID,
			&evt.Description,
			&evt.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		evt.Type = event.Type(eventType)
		events = append(events, &evt)
	}

	return events, rows.Err()
}

var _ port.EventLog = (*EventRepository)(nil)
