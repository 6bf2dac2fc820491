package entity

import "time"

// NotificationRecord is one outbox entry for a notification attempt
type NotificationRecord struct {
	ID           int64      `json:"id"`
	RequestID    string     `json:"request_id"`
	Template     string     `json:"template"`
	Recipient    string     `json:"recipient"`
	Channel      string     `json:"channel"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
