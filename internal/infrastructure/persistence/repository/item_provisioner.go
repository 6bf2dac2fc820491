package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/infrastructure/persistence/sqlite"
)

// ItemProvisioner creates placeholder rows in circulation_items
type ItemProvisioner struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewItemProvisioner creates a new placeholder item provisioner
func NewItemProvisioner(db *sqlite.DB, logger *zap.Logger) *ItemProvisioner {
	return &ItemProvisioner{
		db:     db,
		logger: logger,
	}
}

// CreatePlaceholder adds an on-shelf item flagged as a temporary acquisition item
func (p *ItemProvisioner) CreatePlaceholder(ctx context.Context, catalogRecordID string) (*entity.ItemRef, error) {
	exec := p.db.Executor(ctx)

	var exists int
	err := exec.QueryRowContext(ctx, "SELECT 1 FROM catalog_records WHERE id = ?", catalogRecordID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", port.ErrCatalogRecordNotFound, catalogRecordID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check catalog record: %w", err)
	}

	item := &entity.ItemRef{
		ID:              uuid.NewString(),
		CatalogRecordID: catalogRecordID,
	}

	query := `
		INSERT INTO circulation_items (id, catalog_record_id, status, additional_status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = exec.ExecContext(ctx, query,
		item.ID,
		item.CatalogRecordID,
		entity.ItemStatusOnShelf,
		entity.ItemAdditionalStatusTemporary,
		time.Now().UTC(),
	)
	if err != nil {
		p.logger.Error("Failed to create placeholder item",
			zap.String("catalog_record_id", catalogRecordID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create placeholder item: %w", err)
	}

	p.logger.Info("Placeholder item created",
		zap.String("item_id", item.ID),
		zap.String("catalog_record_id", catalogRecordID))

	return item, nil
}

// DiscardPlaceholder deletes a temporary item. Permanent items are left alone.
func (p *ItemProvisioner) DiscardPlaceholder(ctx context.Context, itemID string) error {
	query := `DELETE FROM circulation_items WHERE id = ? AND additional_status = ?`

	if _, err := p.db.Executor(ctx).ExecContext(ctx, query, itemID, entity.ItemAdditionalStatusTemporary); err != nil {
		p.logger.Error("Failed to discard placeholder item", zap.String("item_id", itemID), zap.Error(err))
		return fmt.Errorf("failed to discard placeholder item: %w", err)
	}
	return nil
}

var _ port.ItemProvisioner = (*ItemProvisioner)(nil)
