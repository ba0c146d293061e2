package events

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/calendav/assistant-backend/internal/model"
)

// Service fronts the calendar backend. All range listings go through the
// range-query compensation in compensate.go so callers see correct results
// even for the single-day windows the backend under-reports.
type Service struct {
	logger *zap.SugaredLogger
	store  CalendarStore
}

// CalendarStore is the backend contract shared by the CalDAV, postgres and
// Google Calendar stores.
type CalendarStore interface {
	ListEvents(ctx context.Context, filter model.EventsFilter) ([]*model.Event, error)
	CreateEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error)
	UpdateEvent(ctx context.Context, id string, info *model.EventUpdate) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	CalendarNames(ctx context.Context) ([]string, error)
}

func NewService(logger *zap.SugaredLogger, store CalendarStore) *Service {
	return &Service{
		logger: logger,
		store:  store,
	}
}

func (s *Service) ListEvents(ctx context.Context, filter model.EventsFilter) ([]*model.Event, error) {
	query, compensated := compensationWindow(filter)
	if compensated {
		s.logger.Debugw("widening single-day query",
			"from", filter.From,
			"to", filter.To,
			"query_from", query.From,
			"query_to", query.To,
		)
	}

	events, err := s.store.ListEvents(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store.ListEvents: %w", err)
	}

	if !compensated {
		return events, nil
	}

	return clipToWindow(events, filter.From, filter.To), nil
}

func (s *Service) CreateEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	event, err := s.store.CreateEvent(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("store.CreateEvent: %w", err)
	}

	return event, nil
}

func (s *Service) UpdateEvent(ctx context.Context, id string, info *model.EventUpdate) (*model.Event, error) {
	if info.RecurrenceRule != nil {
		if err := info.RecurrenceRule.Validate(); err != nil {
			return nil, err
		}
	}

	event, err := s.store.UpdateEvent(ctx, id, info)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return nil, err
		}
		return nil, fmt.Errorf("store.UpdateEvent: %w", err)
	}

	return event, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return err
		}
		return fmt.Errorf("store.DeleteEvent: %w", err)
	}

	return nil
}

func (s *Service) CalendarNames(ctx context.Context) ([]string, error) {
	names, err := s.store.CalendarNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.CalendarNames: %w", err)
	}

	return names, nil
}
