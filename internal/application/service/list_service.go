package service

import (
	"context"
	"fmt"

	"github.com/garyjia/library-acquisition/internal/application/port"
	appwf "github.com/garyjia/library-acquisition/internal/application/workflow"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/workflow"
)

// NamedList is a librarian work queue: one status of one kind
type NamedList struct {
	Name   string         `json:"name"`
	Title  string         `json:"title"`
	Status workflow.State `json:"status"`
	Kind   entity.Kind    `json:"kind"`
}

// NamedLists are the four work queues offered to librarians
var NamedLists = []NamedList{
	{Name: "requested_purchase", Title: "Purchase Requests", Status: workflow.StateRequested, Kind: entity.KindPurchase},
	{Name: "ordered_purchase", Title: "Purchase Orders", Status: workflow.StateOrdered, Kind: entity.KindPurchase},
	{Name: "requested_acquisition", Title: "Acquisition Requests", Status: workflow.StateRequested, Kind: entity.KindAcquisition},
	{Name: "ordered_acquisition", Title: "Acquisition Orders", Status: workflow.StateOrdered, Kind: entity.KindAcquisition},
}

// ListRow is one request as shown in a work queue
type ListRow struct {
	RequestID       string             `json:"request_id"`
	Kind            entity.Kind        `json:"kind"`
	Status          workflow.State     `json:"status"`
	RequesterName   string             `json:"requester_name"`
	RequesterEmail  string             `json:"requester_email"`
	CatalogRecordID string             `json:"catalog_record_id"`
	ItemID          string             `json:"item_id"`
	VendorID        string             `json:"vendor_id,omitempty"`
	Copies          int                `json:"copies"`
	Price           string             `json:"price,omitempty"`
	Currency        string             `json:"currency,omitempty"`
	PositiveActions []workflow.Trigger `json:"positive_actions"`
	NegativeActions []workflow.Trigger `json:"negative_actions"`
}

// ListService renders requests into work-queue rows
type ListService interface {
	// List filters by status and kind; empty values match any
	List(ctx context.Context, status workflow.State, kind entity.Kind) ([]ListRow, error)

	// Named resolves one of NamedLists by name
	Named(ctx context.Context, name string) (*NamedList, []ListRow, error)
}

type listServiceImpl struct {
	repo   port.AcquisitionRepository
	logger Logger
}

// NewListService creates a new ListService
func NewListService(repo port.AcquisitionRepository, logger Logger) ListService {
	return &listServiceImpl{repo: repo, logger: loggerOrNop(logger)}
}

func (s *listServiceImpl) List(ctx context.Context, status workflow.State, kind entity.Kind) ([]ListRow, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}

	requests, err := s.repo.FindByStatusAndKind(ctx, status, kind)
	if err != nil {
		s.logger.Error("Failed to list acquisition requests", "status", status, "kind", kind, "error", err)
		return nil, fmt.Errorf("list requests: %w", err)
	}

	rows := make([]ListRow, 0, len(requests))
	for _, req := range requests {
		rows = append(rows, NewListRow(req))
	}
	return rows, nil
}

func (s *listServiceImpl) Named(ctx context.Context, name string) (*NamedList, []ListRow, error) {
	for i := range NamedLists {
		if NamedLists[i].Name == name {
			list := NamedLists[i]
			rows, err := s.List(ctx, list.Status, list.Kind)
			if err != nil {
				return nil, nil, err
			}
			return &list, rows, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: list %q", port.ErrNotFound, name)
}

// NewListRow flattens a request and splits its permitted triggers into
// forward actions and withdrawals
func NewListRow(req *entity.AcquisitionRequest) ListRow {
	row := ListRow{
		RequestID:       req.ID,
		Kind:            req.Kind,
		Status:          req.Status,
		RequesterName:   req.Requester.Name,
		RequesterEmail:  req.Requester.Email,
		CatalogRecordID: req.CatalogRecordID,
		ItemID:          req.ItemID,
		VendorID:        req.VendorID,
		Copies:          req.Copies,
		Currency:        req.Currency,
		PositiveActions: []workflow.Trigger{},
		NegativeActions: []workflow.Trigger{},
	}
	if req.Price.Valid {
		row.Price = req.Price.Decimal.StringFixed(2)
	}

	if !req.Status.IsValid() {
		return row
	}
	for _, trigger := range appwf.BuildAcquisitionStateMachine(req.Status).PermittedTriggers() {
		switch trigger {
		case workflow.TriggerCancel, workflow.TriggerDecline:
			row.NegativeActions = append(row.NegativeActions, trigger)
		case workflow.TriggerReturn:
			// driven by circulation, never offered as an action
		default:
			row.PositiveActions = append(row.PositiveActions, trigger)
		}
	}
	return row
}
