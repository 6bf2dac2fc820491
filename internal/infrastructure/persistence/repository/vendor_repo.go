package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/infrastructure/persistence/sqlite"
)

// VendorRepository implements port.VendorRepository
type VendorRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *sqlite.DB, logger *zap.Logger) *VendorRepository {
	return &VendorRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a vendor
func (r *VendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	query := `
		INSERT INTO vendors (id, name, address, email, phone, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		vendor.ID,
		vendor.Name,
		vendor.Address,
		vendor.Email,
		vendor.Phone,
		vendor.Notes,
		vendor.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create vendor", zap.String("name", vendor.Name), zap.Error(err))
		return fmt.Errorf("failed to create vendor: %w", err)
	}

	return nil
}

// GetByID retrieves a vendor by ID
func (r *VendorRepository) GetByID(ctx context.Context, id string) (*entity.Vendor, error) {
	query := `
		SELECT id, name, address, email, phone, notes, created_at
		FROM vendors
		WHERE id = ?
	`

	var v entity.Vendor
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.Name, &v.Address, &v.Email, &v.Phone, &v.Notes, &v.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get vendor", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}

	return &v, nil
}

// List returns all vendors ordered by name
func (r *VendorRepository) List(ctx context.Context) ([]*entity.Vendor, error) {
	query := `
		SELECT id, name, address, email, phone, notes, created_at
		FROM vendors
		ORDER BY name ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list vendors", zap.Error(err))
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*entity.Vendor
	for rows.Next() {
		var v entity.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.Email, &v.Phone, &v.Notes, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, &v)
	}

	return vendors, rows.Err()
}

var _ port.VendorRepository = (*VendorRepository)(nil)
