package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garyjia/library-acquisition/internal/domain/entity"
	domainwf "github.com/garyjia/library-acquisition/internal/domain/workflow"
)

// Notification templates
const (
	TemplateRequest  = "acquisition_request"
	TemplateOrdered  = "acquisition_ordered"
	TemplateDeclined = "acquisition_declined"
	TemplateDelivery = "acquisition_delivery"
)

// AcquisitionWorkflow drives acquisition requests through their loan cycle.
//
// Every transition checks its guard, persists the new state together with
// exactly one audit event, then notifies the requester. Errors are one of
// *domainwf.GuardViolation, ErrProvisioning, port.ErrConflict,
// port.ErrNotFound or ErrStorage. Notification failures are logged only.
type AcquisitionWorkflow interface {
	Create(ctx context.Context, in CreateInput) (*entity.AcquisitionRequest, error)
	Confirm(ctx context.Context, id string, in ConfirmInput) (*entity.AcquisitionRequest, error)
	Receive(ctx context.Context, id string) (*entity.AcquisitionRequest, error)
	Cancel(ctx context.Context, id string, reason string) (*entity.AcquisitionRequest, error)
	Decline(ctx context.Context, id string) (*entity.AcquisitionRequest, error)
	Deliver(ctx context.Context, id string) (*entity.AcquisitionRequest, error)

	// FinalizeOnReturn is called by circulation when an item comes back.
	// It reports false when the item is not an acquisition placeholder.
	FinalizeOnReturn(ctx context.Context, itemID string) (bool, error)

	// Get loads a request by id
	Get(ctx context.Context, id string) (*entity.AcquisitionRequest, error)

	// Inspect evaluates every trigger against the request's current state without committing
	Inspect(ctx context.Context, id string) (*Inspection, error)
}

// CreateInput carries the fields of a new request
type CreateInput struct {
	Kind            entity.Kind
	Requester       entity.Requester
	CatalogRecordID string
	Copies          int
	PaymentMethod   entity.PaymentMethod
	BudgetCode      string
	Price           decimal.NullDecimal
	Currency        string
	Delivery        entity.Delivery
	Comments        string
}

func (in CreateInput) request() *entity.AcquisitionRequest {
	delivery := in.Delivery
	if delivery == "" {
		delivery = entity.DefaultDelivery
	}
	return &entity.AcquisitionRequest{
		Status:          domainwf.StateRequested,
		Kind:            in.Kind,
		Requester:       in.Requester,
		CatalogRecordID: in.CatalogRecordID,
		Copies:          in.Copies,
		PaymentMethod:   in.PaymentMethod,
		BudgetCode:      in.BudgetCode,
		Price:           in.Price,
		Currency:        in.Currency,
		Delivery:        delivery,
		Comments:        in.Comments,
	}
}

func (in CreateInput) build(now time.Time) *entity.AcquisitionRequest {
	req := in.request()
	req.ID = uuid.NewString()
	req.IssuedDate = now
	req.CreatedAt = now
	req.UpdatedAt = now
	return req
}

// ConfirmInput carries the order details set when a request is confirmed
type ConfirmInput struct {
	VendorID string
	Price    decimal.Decimal
	Currency string
	Comments string
}

// Inspection is the result of evaluating all triggers against one request
type Inspection struct {
	RequestID  string                        `json:"request_id"`
	State      domainwf.State                `json:"state"`
	Permitted  []domainwf.Trigger            `json:"permitted"`
	Violations map[domainwf.Trigger][]string `json:"violations"`
}
