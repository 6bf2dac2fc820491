package dispatcher

import (
	"context"

	"github.com/garyjia/library-acquisition/internal/domain/event"
)

// Handler reacts to a committed audit event
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging.
// An empty EventType means the handler receives every event.
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
