package http

import (
	"context"
	"sync"

	"github.com/garyjia/library-acquisition/internal/application/service"
	appwf "github.com/garyjia/library-acquisition/internal/application/workflow"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	domainwf "github.com/garyjia/library-acquisition/internal/domain/workflow"
)

type mockWorkflow struct {
	createFunc   func(ctx context.Context, in appwf.CreateInput) (*entity.AcquisitionRequest, error)
	confirmFunc  func(ctx context.Context, id string, in appwf.ConfirmInput) (*entity.AcquisitionRequest, error)
	transitionFn func(ctx context.Context, trigger, id string) (*entity.AcquisitionRequest, error)
	cancelFunc   func(ctx context.Context, id, reason string) (*entity.AcquisitionRequest, error)
	finalizeFunc func(ctx context.Context, itemID string) (bool, error)
	getFunc      func(ctx context.Context, id string) (*entity.AcquisitionRequest, error)
	inspectFunc  func(ctx context.Context, id string) (*appwf.Inspection, error)
}

func (m *mockWorkflow) Create(ctx context.Context, in appwf.CreateInput) (*entity.AcquisitionRequest, error) {
	return m.createFunc(ctx, in)
}

func (m *mockWorkflow) Confirm(ctx context.Context, id string, in appwf.ConfirmInput) (*entity.AcquisitionRequest, error) {
	return m.confirmFunc(ctx, id, in)
}

func (m *mockWorkflow) Receive(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	return m.transitionFn(ctx, "receive", id)
}

func (m *mockWorkflow) Cancel(ctx context.Context, id string, reason string) (*entity.AcquisitionRequest, error) {
	return m.cancelFunc(ctx, id, reason)
}

func (m *mockWorkflow) Decline(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	return m.transitionFn(ctx, "decline", id)
}

func (m *mockWorkflow) Deliver(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	return m.transitionFn(ctx, "deliver", id)
}

func (m *mockWorkflow) FinalizeOnReturn(ctx context.Context, itemID string) (bool, error) {
	return m.finalizeFunc(ctx, itemID)
}

func (m *mockWorkflow) Get(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	return m.getFunc(ctx, id)
}

func (m *mockWorkflow) Inspect(ctx context.Context, id string) (*appwf.Inspection, error) {
	return m.inspectFunc(ctx, id)
}

type mockListService struct {
	listFunc  func(ctx context.Context, status domainwf.State, kind entity.Kind) ([]service.ListRow, error)
	namedFunc func(ctx context.Context, name string) (*service.NamedList, []service.ListRow, error)
}

func (m *mockListService) List(ctx context.Context, status domainwf.State, kind entity.Kind) ([]service.ListRow, error) {
	return m.listFunc(ctx, status, kind)
}

func (m *mockListService) Named(ctx context.Context, name string) (*service.NamedList, []service.ListRow, error) {
	return m.namedFunc(ctx, name)
}

type mockHoldsService struct {
	holdsFunc func(ctx context.Context, userID string) ([]service.HoldSection, error)
}

func (m *mockHoldsService) CurrentHolds(ctx context.Context, userID string) ([]service.HoldSection, error) {
	return m.holdsFunc(ctx, userID)
}

type mockReportService struct {
	exportFunc func(ctx context.Context, status domainwf.State, kind entity.Kind) ([]byte, error)
}

func (m *mockReportService) Export(ctx context.Context, status domainwf.State, kind entity.Kind) ([]byte, error) {
	return m.exportFunc(ctx, status, kind)
}

type mockHistoryService struct {
	historyFunc func(ctx context.Context, requestID string) (*service.History, error)
}

func (m *mockHistoryService) History(ctx context.Context, requestID string) (*service.History, error) {
	return m.historyFunc(ctx, requestID)
}

type mockVendorService struct {
	createFunc func(ctx context.Context, in service.VendorInput) (*entity.Vendor, error)
	getFunc    func(ctx context.Context, id string) (*entity.Vendor, error)
	listFunc   func(ctx context.Context) ([]*entity.Vendor, error)
}

func (m *mockVendorService) Create(ctx context.Context, in service.VendorInput) (*entity.Vendor, error) {
	return m.createFunc(ctx, in)
}

func (m *mockVendorService) Get(ctx context.Context, id string) (*entity.Vendor, error) {
	return m.getFunc(ctx, id)
}

func (m *mockVendorService) List(ctx context.Context) ([]*entity.Vendor, error) {
	return m.listFunc(ctx)
}

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}
