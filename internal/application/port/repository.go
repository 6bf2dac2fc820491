package port

import (
	"context"
	"errors"

	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/event"
	"github.com/garyjia/library-acquisition/internal/domain/workflow"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a save races with another writer of the same record
	ErrConflict = errors.New("concurrent modification")
)

// AcquisitionRepository defines persistence operations for AcquisitionRequest
type AcquisitionRepository interface {
	// Create inserts a new request at version 1
	Create(ctx context.Context, req *entity.AcquisitionRequest) error

	// GetByID returns ErrNotFound when the id is unknown
	GetByID(ctx context.Context, id string) (*entity.AcquisitionRequest, error)

	// GetByItemID finds the request owning a placeholder item, or ErrNotFound
	GetByItemID(ctx context.Context, itemID string) (*entity.AcquisitionRequest, error)

	// Save writes req if the stored version still equals req.Version, then bumps req.Version.
	// It returns ErrConflict when another writer got there first.
	Save(ctx context.Context, req *entity.AcquisitionRequest) error

	FindByStatusAndKind(ctx context.Context, status workflow.State, kind entity.Kind) ([]*entity.AcquisitionRequest, error)
	FindByRequester(ctx context.Context, requesterID string, status workflow.State, kind entity.Kind) ([]*entity.AcquisitionRequest, error)
}

// EventLog is the append-only audit trail
type EventLog interface {
	Append(ctx context.Context, evt *event.Event) error
	ListByRequestID(ctx context.Context, requestID string) ([]*event.Event, error)
}

// VendorRepository defines persistence operations for Vendor
type VendorRepository interface {
	Create(ctx context.Context, vendor *entity.Vendor) error
	GetByID(ctx context.Context, id string) (*entity.Vendor, error)
	List(ctx context.Context) ([]*entity.Vendor, error)
}

// CatalogRepository defines persistence operations for catalog records
type CatalogRepository interface {
	Create(ctx context.Context, record *entity.CatalogRecord) error
	GetByID(ctx context.Context, id string) (*entity.CatalogRecord, error)
}

// NotificationRepository defines persistence operations for the notification outbox
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.NotificationRecord) error
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ListByRequestID(ctx context.Context, requestID string) ([]*entity.NotificationRecord, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
