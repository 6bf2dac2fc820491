package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
)

// CatalogRepository implements port.CatalogRepository
type CatalogRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(store *Store, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{store: store, logger: logger}
}

// Create inserts a catalog record
func (r *CatalogRepository) Create(ctx context.Context, record *entity.CatalogRecord) error {
	_, err := r.store.executor(ctx).Exec(ctx,
		"INSERT INTO catalog_records (id, title, created_at) VALUES ($1, $2, $3)",
		record.ID, record.Title, record.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create catalog record", zap.String("id", record.ID), zap.Error(err))
		return fmt.Errorf("failed to create catalog record: %w", err)
	}
	return nil
}

// GetByID retrieves a catalog record by ID
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*entity.CatalogRecord, error) {
	var record entity.CatalogRecord
	err := r.store.executor(ctx).QueryRow(ctx,
		"SELECT id, title, created_at FROM catalog_records WHERE id = $1", id,
	).Scan(&record.ID, &record.Title, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get catalog record", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get catalog record: %w", err)
	}
	return &record, nil
}

// ItemProvisioner creates placeholder rows in circulation_items
type ItemProvisioner struct {
	store  *Store
	logger *zap.Logger
}

// NewItemProvisioner creates a new placeholder item provisioner
func NewItemProvisioner(store *Store, logger *zap.Logger) *ItemProvisioner {
	return &ItemProvisioner{store: store, logger: logger}
}

// CreatePlaceholder adds an on-shelf item flagged as a temporary acquisition item
func (p *ItemProvisioner) CreatePlaceholder(ctx context.Context, catalogRecordID string) (*entity.ItemRef, error) {
	item := &entity.ItemRef{ID: uuid.NewString(), CatalogRecordID: catalogRecordID}

	// the insert selects from catalog_records so a missing record inserts nothing
	tag, err := p.store.executor(ctx).Exec(ctx, `
		INSERT INTO circulation_items (id, catalog_record_id, status, additional_status, created_at)
		SELECT $1::text, id, $3::text, $4::text, $5::timestamptz FROM catalog_records WHERE id = $2::text`,
		item.ID, catalogRecordID, entity.ItemStatusOnShelf, entity.ItemAdditionalStatusTemporary, time.Now().UTC(),
	)
	if err != nil {
		p.logger.Error("Failed to create placeholder item",
			zap.String("catalog_record_id", catalogRecordID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create placeholder item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", port.ErrCatalogRecordNotFound, catalogRecordID)
	}

	p.logger.Info("Placeholder item created",
		zap.String("item_id", item.ID),
		zap.String("catalog_record_id", catalogRecordID))
	return item, nil
}

// DiscardPlaceholder deletes a temporary item. Permanent items are left alone.
func (p *ItemProvisioner) DiscardPlaceholder(ctx context.Context, itemID string) error {
	_, err := p.store.executor(ctx).Exec(ctx,
		"DELETE FROM circulation_items WHERE id = $1 AND additional_status = $2",
		itemID, entity.ItemAdditionalStatusTemporary)
	if err != nil {
		p.logger.Error("Failed to discard placeholder item", zap.String("item_id", itemID), zap.Error(err))
		return fmt.Errorf("failed to discard placeholder item: %w", err)
	}
	return nil
}

var (
	_ port.CatalogRepository = (*CatalogRepository)(nil)
	_ port.ItemProvisioner   = (*ItemProvisioner)(nil)
)
