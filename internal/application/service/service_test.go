package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/event"
	"github.com/garyjia/library-acquisition/internal/domain/workflow"
)

func TestListService_List(t *testing.T) {
	svc := NewListService(fixture(), nil)

	rows, err := svc.List(context.Background(), workflow.StateRequested, entity.KindAcquisition)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "r3", rows[0].RequestID)
	assert.Equal(t, "Patron alice", rows[0].RequesterName)
	assert.Equal(t, []workflow.Trigger{workflow.TriggerConfirm}, rows[0].PositiveActions)
	assert.Equal(t, []workflow.Trigger{workflow.TriggerDecline, workflow.TriggerCancel}, rows[0].NegativeActions)

	rows, err = svc.List(context.Background(), workflow.StateOrdered, entity.KindPurchase)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "12.50", rows[0].Price)
	assert.Equal(t, "EUR", rows[0].Currency)
	assert.Equal(t, "amazon.com", rows[0].VendorID)
	assert.Equal(t, []workflow.Trigger{workflow.TriggerReceive, workflow.TriggerDeliver}, rows[0].PositiveActions)
	assert.Equal(t, []workflow.Trigger{workflow.TriggerCancel}, rows[0].NegativeActions)
}

func TestListService_ActionsForOtherStates(t *testing.T) {
	tests := []struct {
		name     string
		status   workflow.State
		positive int
		negative int
	}{
		{"received offers nothing, return is driven by circulation", workflow.StateReceived, 0, 0},
		{"delivered is terminal", workflow.StateDelivered, 0, 0},
		{"unknown state offers nothing", workflow.State("lost"), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewListRow(request("x", "alice", tt.status, entity.KindPurchase))
			assert.Len(t, row.PositiveActions, tt.positive)
			assert.Len(t, row.NegativeActions, tt.negative)
		})
	}
}

func TestListService_RejectsUnknownFilters(t *testing.T) {
	svc := NewListService(fixture(), nil)

	_, err := svc.List(context.Background(), workflow.State("Requested"), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.List(context.Background(), "", entity.Kind("loan"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListService_Named(t *testing.T) {
	svc := NewListService(fixture(), nil)

	list, rows, err := svc.Named(context.Background(), "requested_purchase")
	require.NoError(t, err)
	assert.Equal(t, "Purchase Requests", list.Title)
	require.Len(t, rows, 1)
	assert.Equal(t, "r1", rows[0].RequestID)

	_, _, err = svc.Named(context.Background(), "everything")
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestListService_StorageError(t *testing.T) {
	repo := &mockAcquisitionRepo{err: errors.New("database is locked")}
	svc := NewListService(repo, nil)

	_, err := svc.List(context.Background(), "", "")
	assert.ErrorContains(t, err, "database is locked")
}

func TestHoldsService_CurrentHolds(t *testing.T) {
	svc := NewHoldsService(fixture(), nil)

	sections, err := svc.CurrentHolds(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, sections, 4)

	want := []struct {
		heading string
		ids     []string
	}{
		{"Current Acquisition Requests", []string{"r3"}},
		{"Current Acquisition Orders", nil},
		{"Current Purchase Requests", []string{"r1"}},
		{"Current Purchase Orders", []string{"r2"}},
	}
	for i, w := range want {
		assert.Equal(t, w.heading, sections[i].Heading)
		var ids []string
		for _, h := range sections[i].Holds {
			ids = append(ids, h.RequestID)
		}
		assert.Equal(t, w.ids, ids, w.heading)
		assert.NotNil(t, sections[i].Holds, "empty sections render as empty lists")
	}

	_, err = svc.CurrentHolds(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReportService_Export(t *testing.T) {
	svc := NewReportService(fixture(), nil)

	data, err := svc.Export(context.Background(), "", entity.KindPurchase)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ReportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Request ID", rows[0][0])
	assert.Equal(t, "Updated", rows[0][len(reportHeader)-1])
	assert.Equal(t, "r1", rows[1][0])
	assert.Equal(t, "r2", rows[2][0])

	price, err := f.GetCellValue(ReportSheet, "L3")
	require.NoError(t, err)
	assert.Equal(t, "12.5", price)

	vendor, err := f.GetCellValue(ReportSheet, "H3")
	require.NoError(t, err)
	assert.Equal(t, "amazon.com", vendor)

	issued, err := f.GetCellValue(ReportSheet, "O2")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01 10:30", issued)
}

func TestReportService_EmptyAndInvalid(t *testing.T) {
	svc := NewReportService(&mockAcquisitionRepo{}, nil)

	data, err := svc.Export(context.Background(), workflow.StateCanceled, "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(ReportSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")

	_, err = svc.Export(context.Background(), workflow.State("bogus"), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVendorService(t *testing.T) {
	repo := &mockVendorRepo{}
	svc := NewVendorService(repo, nil)
	ctx := context.Background()

	v, err := svc.Create(ctx, VendorInput{Name: "  amazon.com ", Email: "orders@amazon.com"})
	require.NoError(t, err)
	assert.Equal(t, "amazon.com", v.Name)
	assert.NotEmpty(t, v.ID)
	assert.False(t, v.CreatedAt.IsZero())

	got, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	tests := []struct {
		name string
		in   VendorInput
	}{
		{"blank name", VendorInput{Name: "   "}},
		{"bad email", VendorInput{Name: "abebooks", Email: "abebooks"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	repo.createErr = errors.New("UNIQUE constraint failed: vendors.name")
	_, err = svc.Create(ctx, VendorInput{Name: "amazon.com"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestHistoryService(t *testing.T) {
	repo := fixture()
	log := &mockEventLog{}
	_ = log.Append(context.Background(), event.NewEvent(event.TypePurchaseRequested, "r2"))
	_ = log.Append(context.Background(), event.NewEvent(event.TypeAcquisitionOrdered, "r2"))
	_ = log.Append(context.Background(), event.NewEvent(event.TypeAcquisitionRequested, "r3"))

	svc := NewHistoryService(repo, log, nil)

	h, err := svc.History(context.Background(), "r2")
	require.NoError(t, err)
	require.Len(t, h.Events, 2)
	assert.Equal(t, event.TypePurchaseRequested, h.Events[0].Type)
	assert.Equal(t, event.TypeAcquisitionOrdered, h.Events[1].Type)
	assert.Empty(t, h.Notifications)

	h, err = svc.History(context.Background(), "r4")
	require.NoError(t, err)
	assert.NotNil(t, h.Events)
	assert.Empty(t, h.Events)

	_, err = svc.History(context.Background(), "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)
}
