package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/event"
	"github.com/garyjia/library-acquisition/internal/domain/workflow"
)

type mockAcquisitionRepo struct {
	requests []*entity.AcquisitionRequest
	err      error
}

func (m *mockAcquisitionRepo) Create(ctx context.Context, req *entity.AcquisitionRequest) error {
	return errors.New("not used")
}

func (m *mockAcquisitionRepo) GetByID(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	for _, r := range m.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, port.ErrNotFound
}

func (m *mockAcquisitionRepo) GetByItemID(ctx context.Context, itemID string) (*entity.AcquisitionRequest, error) {
	return nil, port.ErrNotFound
}

func (m *mockAcquisitionRepo) Save(ctx context.Context, req *entity.AcquisitionRequest) error {
	return errors.New("not used")
}

func (m *mockAcquisitionRepo) FindByStatusAndKind(ctx context.Context, status workflow.State, kind entity.Kind) ([]*entity.AcquisitionRequest, error) {
	return m.find("", status, kind)
}

func (m *mockAcquisitionRepo) FindByRequester(ctx context.Context, requesterID string, status workflow.State, kind entity.Kind) ([]*entity.AcquisitionRequest, error) {
	return m.find(requesterID, status, kind)
}

func (m *mockAcquisitionRepo) find(requesterID string, status workflow.State, kind entity.Kind) ([]*entity.AcquisitionRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*entity.AcquisitionRequest
	for _, r := range m.requests {
		if requesterID != "" && r.Requester.ID != requesterID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		if kind != "" && r.Kind != kind {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type mockEventLog struct {
	events []*event.Event
}

func (m *mockEventLog) Append(ctx context.Context, evt *event.Event) error {
	m.events = append(m.events, evt)
	return nil
}

func (m *mockEventLog) ListByRequestID(ctx context.Context, requestID string) ([]*event.Event, error) {
	var out []*event.Event
	for _, e := range m.events {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockVendorRepo struct {
	vendors   []*entity.Vendor
	createErr error
}

func (m *mockVendorRepo) Create(ctx context.Context, v *entity.Vendor) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.vendors = append(m.vendors, v)
	return nil
}

func (m *mockVendorRepo) GetByID(ctx context.Context, id string) (*entity.Vendor, error) {
	for _, v := range m.vendors {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, port.ErrNotFound
}

func (m *mockVendorRepo) List(ctx context.Context) ([]*entity.Vendor, error) {
	return m.vendors, nil
}

func request(id, requester string, status workflow.State, kind entity.Kind) *entity.AcquisitionRequest {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	return &entity.AcquisitionRequest{
		ID:              id,
		Status:          status,
		Kind:            kind,
		Requester:       entity.Requester{ID: requester, Name: "Patron " + requester, Email: requester + "@example.org"},
		CatalogRecordID: "rec-" + id,
		ItemID:          "item-" + id,
		Copies:          1,
		PaymentMethod:   entity.PaymentCash,
		Delivery:        entity.DeliveryPickUp,
		IssuedDate:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}
}

func fixture() *mockAcquisitionRepo {
	ordered := request("r2", "alice", workflow.StateOrdered, entity.KindPurchase)
	ordered.VendorID = "amazon.com"
	ordered.Price = decimal.NewNullDecimal(decimal.RequireFromString("12.5"))
	ordered.Currency = "EUR"

	return &mockAcquisitionRepo{requests: []*entity.AcquisitionRequest{
		request("r1", "alice", workflow.StateRequested, entity.KindPurchase),
		ordered,
		request("r3", "alice", workflow.StateRequested, entity.KindAcquisition),
		request("r4", "bob", workflow.StateRequested, entity.KindAcquisition),
		request("r5", "alice", workflow.StateDelivered, entity.KindAcquisition),
		request("r6", "alice", workflow.StateReceived, entity.KindAcquisition),
	}}
}
