package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a write-once audit record of something that happened to an acquisition request
type Event struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	RequestID   string    `json:"request_id"`
	UserID      string    `json:"user_id,omitempty"`
	ItemID      string    `json:"item_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Option sets an optional field on a new event
type Option func(*Event)

// WithUser records the user the event concerns
func WithUser(userID string) Option {
	return func(e *Event) {
		e.UserID = userID
	}
}

// WithItem records the item the event concerns
func WithItem(itemID string) Option {
	return func(e *Event) {
		e.ItemID = itemID
	}
}

// WithDescription attaches free text, e.g. a cancellation reason
func WithDescription(description string) Option {
	return func(e *Event) {
		e.Description = description
	}
}

// WithTimestamp overrides the creation time, e.g. to match the state change it records
func WithTimestamp(ts time.Time) Option {
	return func(e *Event) {
		e.Timestamp = ts.UTC()
	}
}

// NewEvent creates an audit event with a generated ID and the current UTC timestamp
func NewEvent(eventType Type, requestID string, opts ...Option) *Event {
	e := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}
