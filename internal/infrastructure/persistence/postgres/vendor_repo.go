package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
)

// VendorRepository implements port.VendorRepository
type VendorRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(store *Store, logger *zap.Logger) *VendorRepository {
	return &VendorRepository{store: store, logger: logger}
}

// Create inserts a vendor
func (r *VendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	_, err := r.store.executor(ctx).Exec(ctx, `
		INSERT INTO vendors (id, name, address, email, phone, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		vendor.ID, vendor.Name, vendor.Address, vendor.Email, vendor.Phone, vendor.Notes, vendor.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create vendor", zap.String("name", vendor.Name), zap.Error(err))
		return fmt.Errorf("failed to create vendor: %w", err)
	}
	return nil
}

// GetByID retrieves a vendor by ID
func (r *VendorRepository) GetByID(ctx context.Context, id string) (*entity.Vendor, error) {
	var v entity.Vendor
	err := r.store.executor(ctx).QueryRow(ctx, `
		SELECT id, name, address, email, phone, notes, created_at
		FROM vendors WHERE id = $1`, id,
	).Scan(&v.ID, &v.Name, &v.Address, &v.Email, &v.Phone, &v.Notes, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
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
	rows, err := r.store.executor(ctx).Query(ctx, `
		SELECT id, name, address, email, phone, notes, created_at
		FROM vendors ORDER BY name ASC`)
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
