package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/library-acquisition/internal/application/dispatcher"
	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/event"
	domainwf "github.com/garyjia/library-acquisition/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// engineImpl is the concrete implementation of AcquisitionWorkflow
type engineImpl struct {
	repo        port.AcquisitionRepository
	eventLog    port.EventLog
	provisioner port.ItemProvisioner
	vendors     port.VendorRepository
	txManager   port.TransactionManager
	notifier    port.Notifier
	dispatcher  dispatcher.Dispatcher
	logger      Logger
	now         func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher publishes committed audit events to in-process subscribers
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the logger used for swallowed notification errors
func WithLogger(logger Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// WithClock overrides the time source for issued and modification dates
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new acquisition workflow
func NewEngine(
	repo port.AcquisitionRepository,
	eventLog port.EventLog,
	provisioner port.ItemProvisioner,
	vendors port.VendorRepository,
	txManager port.TransactionManager,
	notifier port.Notifier,
	opts ...EngineOption,
) AcquisitionWorkflow {
	e := &engineImpl{
		repo:        repo,
		eventLog:    eventLog,
		provisioner: provisioner,
		vendors:     vendors,
		txManager:   txManager,
		notifier:    notifier,
		logger:      nopLogger{},
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Create provisions a placeholder item and stores a new request in Requested
func (e *engineImpl) Create(ctx context.Context, in CreateInput) (*entity.AcquisitionRequest, error) {
	now := e.now()
	req := in.build(now)
	if err := domainwf.NewGuardViolation("create", "", req.Validate()); err != nil {
		return nil, err
	}

	item, err := e.provisioner.CreatePlaceholder(ctx, in.CatalogRecordID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvisioning, err)
	}
	req.ItemID = item.ID

	eventType := event.TypeAcquisitionRequested
	if req.Kind == entity.KindPurchase {
		eventType = event.TypePurchaseRequested
	}
	evt := event.NewEvent(eventType, req.ID,
		event.WithUser(req.Requester.ID),
		event.WithItem(item.ID),
		event.WithTimestamp(now),
	)

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.repo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if err := e.eventLog.Append(txCtx, evt); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		return nil
	})
	if err != nil {
		// the placeholder belongs to this request only, so it goes with it
		if dErr := e.provisioner.DiscardPlaceholder(ctx, item.ID); dErr != nil {
			e.logger.Error("Failed to discard placeholder item",
				"item_id", item.ID,
				"error", dErr,
			)
		}
		return nil, storageError(err)
	}

	e.logger.Info("Acquisition request created",
		"request_id", req.ID,
		"kind", req.Kind,
		"item_id", item.ID,
	)

	e.publish(ctx, evt)
	e.notify(ctx, TemplateRequest, req, map[string]interface{}{
		"name":   req.Requester.Name,
		"action": "requested",
		"items":  item.ID,
	})

	return req, nil
}

// Confirm orders a requested document from a known vendor. Comments are
// replaced by in.Comments, so an empty value clears them.
func (e *engineImpl) Confirm(ctx context.Context, id string, in ConfirmInput) (*entity.AcquisitionRequest, error) {
	vendorReasons, err := e.vendorViolations(ctx, in.VendorID)
	if err != nil {
		return nil, err
	}

	return e.fire(ctx, id, transition{
		trigger: domainwf.TriggerConfirm,
		guard: func(req *entity.AcquisitionRequest) []string {
			return append(TryConfirm(req, in), vendorReasons...)
		},
		apply: func(req *entity.AcquisitionRequest) {
			req.VendorID = in.VendorID
			req.Price.Decimal = in.Price
			req.Price.Valid = true
			req.Currency = in.Currency
			req.Comments = in.Comments
		},
		eventType: event.TypeAcquisitionOrdered,
		template:  TemplateOrdered,
	})
}

// Receive records that the ordered document arrived at the library
func (e *engineImpl) Receive(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	return e.fire(ctx, id, transition{
		trigger:   domainwf.TriggerReceive,
		guard:     TryReceive,
		eventType: event.TypeAcquisitionReceived,
		// there is no dedicated "received" template; patrons get the ordered one
		template: TemplateOrdered,
	})
}

// Cancel withdraws a requested or ordered request. The patron is not notified.
func (e *engineImpl) Cancel(ctx context.Context, id string, reason string) (*entity.AcquisitionRequest, error) {
	return e.fire(ctx, id, transition{
		trigger:     domainwf.TriggerCancel,
		guard:       TryCancel,
		eventType:   event.TypeAcquisitionCanceled,
		description: reason,
	})
}

// Decline refuses a request before it is ordered
func (e *engineImpl) Decline(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	return e.fire(ctx, id, transition{
		trigger:   domainwf.TriggerDecline,
		guard:     TryDecline,
		eventType: event.TypeAcquisitionDeclined,
		template:  TemplateDeclined,
	})
}

// Deliver hands an ordered document to the patron
func (e *engineImpl) Deliver(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	return e.fire(ctx, id, transition{
		trigger:   domainwf.TriggerDeliver,
		guard:     TryDeliver,
		eventType: event.TypeAcquisitionDelivered,
		template:  TemplateDelivery,
	})
}

// vendorViolations reports a vendor id that names no stored vendor.
// An empty id is left to TryConfirm.
func (e *engineImpl) vendorViolations(ctx context.Context, vendorID string) ([]string, error) {
	if vendorID == "" {
		return nil, nil
	}

	_, err := e.vendors.GetByID(ctx, vendorID)
	if errors.Is(err, port.ErrNotFound) {
		return []string{fmt.Sprintf("vendor %q does not exist", vendorID)}, nil
	}
	if err != nil {
		return nil, storageError(err)
	}
	return nil, nil
}

// FinalizeOnReturn closes the cycle of the request owning itemID.
// The request ends delivered, so the patron gets the delivery notification.
func (e *engineImpl) FinalizeOnReturn(ctx context.Context, itemID string) (bool, error) {
	req, err := e.repo.GetByItemID(ctx, itemID)
	if errors.Is(err, port.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storageError(err)
	}

	_, err = e.fire(ctx, req.ID, transition{
		trigger:   domainwf.TriggerReturn,
		guard:     TryReturn,
		eventType: event.TypeAcquisitionReturned,
		itemEvent: true,
		template:  TemplateDelivery,
	})
	if err != nil {
		return false, err
	}

	return true, nil
}

// Get loads a request by id
func (e *engineImpl) Get(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	req, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return req, nil
}

// Inspect reports permitted triggers and state violations for every trigger
func (e *engineImpl) Inspect(ctx context.Context, id string) (*Inspection, error) {
	req, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: request %s has unknown state %q", ErrStorage, id, req.Status)
	}

	machine := BuildAcquisitionStateMachine(req.Status)
	result := &Inspection{
		RequestID:  req.ID,
		State:      req.Status,
		Permitted:  machine.PermittedTriggers(),
		Violations: make(map[domainwf.Trigger][]string),
	}
	for _, trigger := range domainwf.AllTriggers {
		if v := machine.Violations(trigger); len(v) > 0 {
			result.Violations[trigger] = v
		}
	}

	return result, nil
}

// transition describes one state change and its side effects
type transition struct {
	trigger     domainwf.Trigger
	guard       func(req *entity.AcquisitionRequest) []string
	apply       func(req *entity.AcquisitionRequest)
	eventType   event.Type
	description string
	itemEvent   bool
	template    string
}

// fire loads the request, checks the guard, then commits the new state and
// its audit event in one transaction. The save is conditioned on the version
// that was loaded, so a concurrent transition makes this one fail with
// port.ErrConflict instead of committing on a stale guard.
func (e *engineImpl) fire(ctx context.Context, id string, t transition) (*entity.AcquisitionRequest, error) {
	current, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	if !current.Status.IsValid() {
		return nil, fmt.Errorf("%w: request %s has unknown state %q", ErrStorage, id, current.Status)
	}

	if err := domainwf.NewGuardViolation(t.trigger.String(), current.Status, t.guard(current)); err != nil {
		return nil, err
	}

	machine := BuildAcquisitionStateMachine(current.Status)
	if err := machine.Fire(ctx, t.trigger); err != nil {
		return nil, err
	}

	now := e.now()
	next := current.Clone()
	next.Status = machine.State()
	next.UpdatedAt = now
	if t.apply != nil {
		t.apply(next)
	}

	opts := []event.Option{event.WithTimestamp(now)}
	if t.description != "" {
		opts = append(opts, event.WithDescription(t.description))
	}
	if t.itemEvent {
		opts = append(opts, event.WithItem(next.ItemID))
	}
	evt := event.NewEvent(t.eventType, next.ID, opts...)

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.repo.Save(txCtx, next); err != nil {
			return fmt.Errorf("save request: %w", err)
		}
		if err := e.eventLog.Append(txCtx, evt); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	e.logger.Info("Acquisition request transitioned",
		"request_id", next.ID,
		"trigger", t.trigger,
		"from", current.Status,
		"to", next.Status,
	)

	e.publish(ctx, evt)
	e.notify(ctx, t.template, next, nil)

	return next, nil
}

func (e *engineImpl) publish(ctx context.Context, evt *event.Event) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.DispatchAsync(ctx, evt)
}

// notify sends template to the requester. Failures and panics are logged and dropped.
func (e *engineImpl) notify(ctx context.Context, template string, req *entity.AcquisitionRequest, extra map[string]interface{}) {
	if template == "" || e.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Notifier panic recovered",
				"template", template,
				"request_id", req.ID,
				"panic", r,
			)
		}
	}()

	data := notificationData(req)
	for k, v := range extra {
		data[k] = v
	}

	if err := e.notifier.Send(ctx, template, req.Requester.Email, data); err != nil {
		e.logger.Error("Failed to send notification",
			"template", template,
			"request_id", req.ID,
			"recipient", req.Requester.Email,
			"error", err,
		)
	}
}

func notificationData(req *entity.AcquisitionRequest) map[string]interface{} {
	data := map[string]interface{}{
		"request_id": req.ID,
		"kind":       string(req.Kind),
		"status":     req.Status.String(),
		"name":       req.Requester.Name,
		"record_id":  req.CatalogRecordID,
		"item_id":    req.ItemID,
		"copies":     req.Copies,
		"delivery":   string(req.Delivery),
		"comments":   req.Comments,
	}
	if req.VendorID != "" {
		data["vendor_id"] = req.VendorID
	}
	if req.Price.Valid {
		data["price"] = req.Price.Decimal.StringFixed(2)
		data["currency"] = req.Currency
	}
	return data
}
