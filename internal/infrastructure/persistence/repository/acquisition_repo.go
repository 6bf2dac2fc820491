package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/workflow"
	"github.com/garyjia/library-acquisition/internal/infrastructure/persistence/sqlite"
)

const acquisitionColumns = `
	id, status, kind, requester_id, requester_name, requester_email,
	catalog_record_id, item_id, vendor_id, copies, payment_method, budget_code,
	price, currency, delivery, comments, invoice, issued_date,
	created_at, updated_at, version`

// AcquisitionRepository implements port.AcquisitionRepository
type AcquisitionRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewAcquisitionRepository creates a new acquisition repository
func NewAcquisitionRepository(db *sqlite.DB, logger *zap.Logger) *AcquisitionRepository {
	return &AcquisitionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new request and sets its version to 1
func (r *AcquisitionRepository) Create(ctx context.Context, req *entity.AcquisitionRequest) error {
	query := `INSERT INTO acquisition_requests (` + acquisitionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		req.ID,
		string(req.Status),
		string(req.Kind),
		req.Requester.ID,
		req.Requester.Name,
		req.Requester.Email,
		req.CatalogRecordID,
		req.ItemID,
		nullableID(req.VendorID),
		req.Copies,
		string(req.PaymentMethod),
		req.BudgetCode,
		req.Price,
		req.Currency,
		string(req.Delivery),
		req.Comments,
		req.Invoice,
		req.IssuedDate,
		req.CreatedAt,
		req.UpdatedAt,
		1,
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
	query := `SELECT ` + acquisitionColumns + ` FROM acquisition_requests WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByItemID retrieves the request owning a placeholder item
func (r *AcquisitionRepository) GetByItemID(ctx context.Context, itemID string) (*entity.AcquisitionRequest, error) {
	query := `SELECT ` + acquisitionColumns + ` FROM acquisition_requests WHERE item_id = ?`
	return r.getOne(ctx, query, itemID)
}

// Save writes every mutable column when the stored version matches req.Version
func (r *AcquisitionRepository) Save(ctx context.Context, req *entity.AcquisitionRequest) error {
	query := `
		UPDATE acquisition_requests
		SET status = ?, vendor_id = ?, copies = ?, payment_method = ?, budget_code = ?,
			price = ?, currency = ?, delivery = ?, comments = ?, invoice = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`

	exec := r.db.Executor(ctx)
	result, err := exec.ExecContext(ctx, query,
		string(req.Status),
		nullableID(req.VendorID),
		req.Copies,
		string(req.PaymentMethod),
		req.BudgetCode,
		req.Price,
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

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists int
		err := exec.QueryRowContext(ctx, "SELECT 1 FROM acquisition_requests WHERE id = ?", req.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return port.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check acquisition request: %w", err)
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
	where, args := filters([]string{"requester_id = ?"}, []interface{}{requesterID}, status, kind)
	return r.list(ctx, where, args)
}

func filters(where []string, args []interface{}, status workflow.State, kind entity.Kind) ([]string, []interface{}) {
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, string(status))
	}
	if kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(kind))
	}
	return where, args
}

func (r *AcquisitionRepository) list(ctx context.Context, where []string, args []interface{}) ([]*entity.AcquisitionRequest, error) {
	query := `SELECT ` + acquisitionColumns + ` FROM acquisition_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
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

func (r *AcquisitionRepository) getOne(ctx context.Context, query string, arg string) (*entity.AcquisitionRequest, error) {
	req, err := scanAcquisition(r.db.Executor(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get acquisition request", zap.String("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get acquisition request: %w", err)
	}
	return req, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAcquisition(row rowScanner) (*entity.AcquisitionRequest, error) {
	var req entity.AcquisitionRequest
	var status, kind, paymentMethod, delivery string
	var vendorID sql.NullString

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
		&req.Price,
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

	req.VendorID = vendorID.String
	req.Status = workflow.State(status)
	req.Kind = entity.Kind(kind)
	req.PaymentMethod = entity.PaymentMethod(paymentMethod)
	req.Delivery = entity.Delivery(delivery)
	return &req, nil
}

// nullableID stores an unset reference as NULL so foreign keys accept it
func nullableID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

var _ port.AcquisitionRepository = (*AcquisitionRepository)(nil)
