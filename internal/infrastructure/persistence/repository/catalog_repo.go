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

// CatalogRepository implements port.CatalogRepository
type CatalogRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *sqlite.DB, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a catalog record
func (r *CatalogRepository) Create(ctx context.Context, record *entity.CatalogRecord) error {
	query := `INSERT INTO catalog_records (id, title, created_at) VALUES (?, ?, ?)`

	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, record.ID, record.Title, record.CreatedAt); err != nil {
		r.logger.Error("Failed to create catalog record", zap.String("id", record.ID), zap.Error(err))
		return fmt.Errorf("failed to create catalog record: %w", err)
	}
	return nil
}

// GetByID retrieves a catalog record by ID
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*entity.CatalogRecord, error) {
	query := `SELECT id, title, created_at FROM catalog_records WHERE id = ?`

	var record entity.CatalogRecord
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(&record.ID, &record.Title, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get catalog record", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get catalog record: %w", err)
	}

	return &record, nil
}

var _ port.CatalogRepository = (*CatalogRepository)(nil)
