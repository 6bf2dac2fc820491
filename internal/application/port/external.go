package port

import (
	"context"
	"errors"

	"github.com/garyjia/library-acquisition/internal/domain/entity"
)

// ErrCatalogRecordNotFound is returned by ItemProvisioner when the anchor record is missing
var ErrCatalogRecordNotFound = errors.New("catalog record not found")

// ItemProvisioner manages placeholder inventory items for acquisitions
type ItemProvisioner interface {
	// CreatePlaceholder creates a temporary item attached to the catalog record
	CreatePlaceholder(ctx context.Context, catalogRecordID string) (*entity.ItemRef, error)

	// DiscardPlaceholder removes a placeholder whose request was never stored
	DiscardPlaceholder(ctx context.Context, itemID string) error
}

// Notifier delivers a templated message to a user. Callers treat it as best effort.
type Notifier interface {
	Send(ctx context.Context, template, recipientEmail string, data map[string]interface{}) error
}
