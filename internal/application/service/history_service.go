package service

import (
	"context"
	"fmt"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/event"
)

// History is the audit trail and notification record of one request
type History struct {
	RequestID     string                       `json:"request_id"`
	Events        []*event.Event               `json:"events"`
	Notifications []*entity.NotificationRecord `json:"notifications"`
}

// HistoryService reads what happened to a request
type HistoryService interface {
	History(ctx context.Context, requestID string) (*History, error)
}

type historyServiceImpl struct {
	repo          port.AcquisitionRepository
	eventLog      port.EventLog
	notifications port.NotificationRepository
}

// NewHistoryService creates a new HistoryService. notifications may be nil.
func NewHistoryService(repo port.AcquisitionRepository, eventLog port.EventLog, notifications port.NotificationRepository) HistoryService {
	return &historyServiceImpl{repo: repo, eventLog: eventLog, notifications: notifications}
}

func (s *historyServiceImpl) History(ctx context.Context, requestID string) (*History, error) {
	if _, err := s.repo.GetByID(ctx, requestID); err != nil {
		return nil, err
	}

	events, err := s.eventLog.ListByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	h := &History{
		RequestID:     requestID,
		Events:        events,
		Notifications: []*entity.NotificationRecord{},
	}
	if h.Events == nil {
		h.Events = []*event.Event{}
	}

	if s.notifications != nil {
		records, err := s.notifications.ListByRequestID(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("list notifications: %w", err)
		}
		if records != nil {
			h.Notifications = records
		}
	}

	return h, nil
}
