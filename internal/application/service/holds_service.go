package service

import (
	"context"
	"fmt"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/workflow"
)

// HoldSection is one heading of a patron's open requests
type HoldSection struct {
	Heading string    `json:"heading"`
	Holds   []ListRow `json:"holds"`
}

var holdSections = []struct {
	heading string
	status  workflow.State
	kind    entity.Kind
}{
	{"Current Acquisition Requests", workflow.StateRequested, entity.KindAcquisition},
	{"Current Acquisition Orders", workflow.StateOrdered, entity.KindAcquisition},
	{"Current Purchase Requests", workflow.StateRequested, entity.KindPurchase},
	{"Current Purchase Orders", workflow.StateOrdered, entity.KindPurchase},
}

// HoldsService answers "what is this patron waiting for"
type HoldsService interface {
	CurrentHolds(ctx context.Context, userID string) ([]HoldSection, error)
}

type holdsServiceImpl struct {
	repo   port.AcquisitionRepository
	logger Logger
}

// NewHoldsService creates a new HoldsService
func NewHoldsService(repo port.AcquisitionRepository, logger Logger) HoldsService {
	return &holdsServiceImpl{repo: repo, logger: loggerOrNop(logger)}
}

// CurrentHolds always returns the four sections in a fixed order, empty ones included
func (s *holdsServiceImpl) CurrentHolds(ctx context.Context, userID string) ([]HoldSection, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	sections := make([]HoldSection, 0, len(holdSections))
	for _, def := range holdSections {
		requests, err := s.repo.FindByRequester(ctx, userID, def.status, def.kind)
		if err != nil {
			s.logger.Error("Failed to load holds", "user_id", userID, "heading", def.heading, "error", err)
			return nil, fmt.Errorf("load %s: %w", def.heading, err)
		}

		section := HoldSection{Heading: def.heading, Holds: make([]ListRow, 0, len(requests))}
		for _, req := range requests {
			section.Holds = append(section.Holds, NewListRow(req))
		}
		sections = append(sections, section)
	}

	return sections, nil
}
