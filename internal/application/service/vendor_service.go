package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/pkg/utils"
)

// VendorInput carries the fields of a new vendor
type VendorInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes"`
}

// VendorService manages the vendor reference list
type VendorService interface {
	Create(ctx context.Context, in VendorInput) (*entity.Vendor, error)
	Get(ctx context.Context, id string) (*entity.Vendor, error)
	List(ctx context.Context) ([]*entity.Vendor, error)
}

type vendorServiceImpl struct {
	repo   port.VendorRepository
	logger Logger
	now    func() time.Time
}

// NewVendorService creates a new VendorService
func NewVendorService(repo port.VendorRepository, logger Logger) VendorService {
	return &vendorServiceImpl{
		repo:   repo,
		logger: loggerOrNop(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *vendorServiceImpl) Create(ctx context.Context, in VendorInput) (*entity.Vendor, error) {
	name := utils.NormalizeName(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: vendor name is required", ErrInvalidInput)
	}
	if in.Email != "" {
		if err := utils.ValidateEmail(in.Email); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	vendor := &entity.Vendor{
		ID:        uuid.NewString(),
		Name:      name,
		Address:   in.Address,
		Email:     in.Email,
		Phone:     in.Phone,
		Notes:     in.Notes,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, vendor); err != nil {
		s.logger.Error("Failed to create vendor", "name", name, "error", err)
		return nil, fmt.Errorf("create vendor: %w", err)
	}

	s.logger.Info("Vendor created", "vendor_id", vendor.ID, "name", name)
	return vendor, nil
}

func (s *vendorServiceImpl) Get(ctx context.Context, id string) (*entity.Vendor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *vendorServiceImpl) List(ctx context.Context) ([]*entity.Vendor, error) {
	vendors, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return vendors, nil
}
