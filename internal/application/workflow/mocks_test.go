package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/event"
	domainwf "github.com/garyjia/library-acquisition/internal/domain/workflow"
)

// memStore backs the repository, event log and transaction manager mocks.
// Transactions are serialized; each snapshots the data and restores it when fn fails.
type memStore struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	requests map[string]entity.AcquisitionRequest
	events   []*event.Event

	saveErr   error
	appendErr error

	// afterLoad runs outside the lock after GetByID, used to line up concurrent writers
	afterLoad func()
}

func newMemStore() *memStore {
	return &memStore{requests: make(map[string]entity.AcquisitionRequest)}
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	requests := make(map[string]entity.AcquisitionRequest, len(s.requests))
	for k, v := range s.requests {
		requests[k] = v
	}
	events := append([]*event.Event(nil), s.events...)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.requests = requests
		s.events = events
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) Create(ctx context.Context, req *entity.AcquisitionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, exists := s.requests[req.ID]; exists {
		return fmt.Errorf("duplicate id %s", req.ID)
	}
	req.Version = 1
	s.requests[req.ID] = *req
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	s.mu.Lock()
	req, ok := s.requests[id]
	s.mu.Unlock()

	if s.afterLoad != nil {
		s.afterLoad()
	}
	if !ok {
		return nil, port.ErrNotFound
	}
	return &req, nil
}

func (s *memStore) GetByItemID(ctx context.Context, itemID string) (*entity.AcquisitionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.ItemID == itemID {
			r := req
			return &r, nil
		}
	}
	return nil, port.ErrNotFound
}

func (s *memStore) Save(ctx context.Context, req *entity.AcquisitionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	stored, ok := s.requests[req.ID]
	if !ok {
		return port.ErrNotFound
	}
	if stored.Version != req.Version {
		return port.ErrConflict
	}
	req.Version++
	s.requests[req.ID] = *req
	return nil
}

func (s *memStore) FindByStatusAndKind(ctx context.Context, status domainwf.State, kind entity.Kind) ([]*entity.AcquisitionRequest, error) {
	return nil, errors.New("not used by the workflow")
}

func (s *memStore) FindByRequester(ctx context.Context, requesterID string, status domainwf.State, kind entity.Kind) ([]*entity.AcquisitionRequest, error) {
	return nil, errors.New("not used by the workflow")
}

func (s *memStore) Append(ctx context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.events = append(s.events, evt)
	return nil
}

func (s *memStore) ListByRequestID(ctx context.Context, requestID string) ([]*event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*event.Event
	for _, e := range s.events {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) stored(id string) entity.AcquisitionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

func (s *memStore) eventsFor(id string) []*event.Event {
	evts, _ := s.ListByRequestID(context.Background(), id)
	return evts
}

type mockProvisioner struct {
	mu        sync.Mutex
	created   []string
	discarded []string
	err       error
}

func (m *mockProvisioner) CreatePlaceholder(ctx context.Context, catalogRecordID string) (*entity.ItemRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	id := fmt.Sprintf("item-%d", len(m.created)+1)
	m.created = append(m.created, id)
	return &entity.ItemRef{ID: id, CatalogRecordID: catalogRecordID}, nil
}

func (m *mockProvisioner) DiscardPlaceholder(ctx context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discarded = append(m.discarded, itemID)
	return nil
}

type mockVendorRepo struct {
	vendors map[string]*entity.Vendor
	err     error
}

func newMockVendorRepo(ids ...string) *mockVendorRepo {
	m := &mockVendorRepo{vendors: make(map[string]*entity.Vendor)}
	for _, id := range ids {
		m.vendors[id] = &entity.Vendor{ID: id, Name: "vendor " + id}
	}
	return m
}

func (m *mockVendorRepo) Create(ctx context.Context, vendor *entity.Vendor) error {
	m.vendors[vendor.ID] = vendor
	return nil
}

func (m *mockVendorRepo) GetByID(ctx context.Context, id string) (*entity.Vendor, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.vendors[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return v, nil
}

func (m *mockVendorRepo) List(ctx context.Context) ([]*entity.Vendor, error) {
	return nil, errors.New("not used by the workflow")
}

type sentNotification struct {
	template  string
	recipient string
	data      map[string]interface{}
}

type mockNotifier struct {
	mu    sync.Mutex
	sent  []sentNotification
	err   error
	panic bool
}

func (m *mockNotifier) Send(ctx context.Context, template, recipient string, data map[string]interface{}) error {
	if m.panic {
		panic("notifier exploded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentNotification{template: template, recipient: recipient, data: data})
	return m.err
}

func (m *mockNotifier) templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, n := range m.sent {
		out[i] = n.template
	}
	return out
}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}
