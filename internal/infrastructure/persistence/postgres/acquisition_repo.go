package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/workflow"
)

const acquisitionColumns = `
	id, status, kind, requester_id, requester_name, requester_email,
	catalog_record_id, item_id, vendor_id, copies, payment_method, budget_code,
	price, currency, delivery, comments, invoice, issued_date,
	created_at, updated_at, version`

// AcquisitionRepository implements port.AcquisitionRepository
type AcquisitionRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewAcquisitionRepository creates a new acquisition repository
func NewAcquisitionRepository(store *Store, logger *zap.Logger) *AcquisitionRepository {
	return &AcquisitionRepository{store: store, logger: logger}
}

// Create inserts a new request and sets its version to 1
func (r *AcquisitionRepository) Create(ctx context.Context, req *entity.AcquisitionRequest) error {
	query := `INSERT INTO acquisition_requests (` + acquisitionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, 1)`

	_, err := r.store.executor(ctx).Exec(ctx, query,
		req.ID,
		string(req.Status),
		string(req.Kind),
		req.Requester.ID,
		req.Requester.Name,
		req.Requester.Email,
		req.CatalogRecordID,
		req.ItemID,
		optionalID(req.VendorID),
		req.Copies,
		string(req.PaymentMethod),
		req.BudgetCode,
		priceText(req.Price),
		req.Currency,
		string(req.Delivery),
		req.Comments,
		req.Invoice,
		req.IssuedDate,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create acquisition request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create acquisition request: %w", err)
	}

	req.Version = 1
	return nil
}

// GetByID retrieves a request by ID
func (r *AcquisitionRepository) GetByID(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
	return r.getOne(ctx, `SELECT `+acquisitionColumns+` FROM acquisition_requests WHERE id = $1`, id)
}

// GetByItemID retrieves the request owning a placeholder item
func (r *AcquisitionRepository) GetByItemID(ctx context.Context, itemID string) (*entity.AcquisitionRequest, error) {
	return r.getOne(ctx, `SELECT `+acquisitionColumns+` FROM acquisition_requests WHERE item_id = $1`, itemID)
}

// Save writes every mutable column when the stored version matches req.Version
func (r *AcquisitionRepository) Save(ctx context.Context, req *entity.AcquisitionRequest) error {
	query := `
		UPDATE acquisition_requests
		SET status = $1, vendor_id = $2, copies = $3, payment_method = $4, budget_code = $5,
			price = $6, currency = $7, delivery = $8, comments = $9, invoice = $10,
			updated_at = $11, version = version + 1
		WHERE id = $12 AND version = $13
	`

	exec := r.store.executor(ctx)
	tag, err := exec.Exec(ctx, query,
		string(req.Status),
		optionalID(req.VendorID),
		req.Copies,
		string(req.PaymentMethod),
		req.BudgetCode,
		priceText(req.Price),
		req.Currency,
		string(req.Delivery),
		req.Comments,
		req.Invoice,
		req.UpdatedAt,
		req.ID,
		req.Version,
	)
	if err != nil {
		r.logger.Error("Failed to save acquisition request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to save acquisition request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := exec.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM acquisition_requests WHERE id = $1)", req.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check acquisition request: %w", err)
		}
		if !exists {
			return port.ErrNotFound
		}
		return port.ErrConflict
	}

	req.Version++
	return nil
}

// FindByStatusAndKind lists requests oldest first. An empty status or kind matches any.
func (r *AcquisitionRepository) FindByStatusAndKind(ctx context.Context, status workflow.State, kind entity.Kind) ([]*entity.AcquisitionRequest, error) {
	where, args := filters(nil, nil, status, kind)
	return r.list(ctx, where, args)
}

// FindByRequester lists a patron's requests, optionally narrowed by status and kind
func (r *AcquisitionRepository) FindByRequester(ctx context.Context, requesterID string, status workflow.State, kind entity.Kind) ([]*entity.AcquisitionRequest, error) {
	where, args := filters([]string{"requester_id = $1"}, []any{requesterID}, status, kind)
	return r.list(ctx, where, args)
}

func filters(where []string, args []any, status workflow.State, kind entity.Kind) ([]string, []any) {
	if status != "" {
		args = append(args, string(status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if kind != "" {
		args = append(args, string(kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	return where, args
}

func (r *AcquisitionRepository) list(ctx context.Context, where []string, args []any) ([]*entity.AcquisitionRequest, error) {
	query := `SELECT ` + acquisitionColumns + ` FROM acquisition_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.store.executor(ctx).Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list acquisition requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list acquisition requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.AcquisitionRequest
	for rows.Next() {
		req, err := scanAcquisition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan acquisition request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func (r *AcquisitionRepository) getOne(ctx context.Context, query, arg string) (*entity.AcquisitionRequest, error) {
	req, err := scanAcquisition(r.store.executor(ctx).QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get acquisition request", zap.String("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get acquisition request: %w", err)
	}
	return req, nil
}

func scanAcquisition(row pgx.Row) (*entity.AcquisitionRequest, error) {
	var req entity.AcquisitionRequest
	var status, kind, paymentMethod, delivery string
	var price, vendorID *string

	err := row.Scan(
		&req.ID,
		&status,
		&kind,
		&req.Requester.ID,
		&req.Requester.Name,
		&req.Requester.Email,
		&req.CatalogRecordID,
		&req.ItemID,
		&vendorID,
		&req.Copies,
		&paymentMethod,
		&req.BudgetCode,
		&price,
		&req.Currency,
		&delivery,
		&req.Comments,
		&req.Invoice,
		&req.IssuedDate,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.Version,
	)
	if err != nil {
		return nil, err
	}

	if vendorID != nil {
		req.VendorID = *vendorID
	}
	if price != nil {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return nil, fmt.Errorf("invalid stored price %q: %w", *price, err)
		}
		req.Price = decimal.NewNullDecimal(d)
	}

	req.Status = workflow.State(status)
	req.Kind = entity.Kind(kind)
	req.PaymentMethod = entity.PaymentMethod(paymentMethod)
	req.Delivery = entity.Delivery(delivery)
	return &req, nil
}

// optionalID stores an unset reference as NULL so foreign keys accept it
func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// priceText stores prices as exact decimal strings
func priceText(p decimal.NullDecimal) *string {
	if !p.Valid {
		return nil
	}
	s := p.Decimal.String()
	return &s
}

var _ port.AcquisitionRepository = (*AcquisitionRepository)(nil)
