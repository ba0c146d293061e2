// Package gcal implements the calendar store against the Google Calendar API.
// Recurring series are listed with SingleEvents so every occurrence comes back
// as its own instance with a backend identifier.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/calendav/assistant-backend/internal/config"
	"github.com/calendav/assistant-backend/internal/model"
)

type Store struct {
	logger    *zap.SugaredLogger
	service   *calendar.Service
	calendars []*calendar.CalendarListEntry
}

func NewStore(ctx context.Context, logger *zap.SugaredLogger) (*Store, error) {
	ts, err := tokenSource(ctx)
	if err != nil {
		return nil, err
	}

	service, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Calendar API: %w", err)
	}

	list, err := service.CalendarList.List().Do()
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	logger.Infow("connected to Google Calendar backend", "calendars", len(list.Items))

	return &Store{
		logger:    logger,
		service:   service,
		calendars: list.Items,
	}, nil
}

func (s *Store) CalendarNames(_ context.Context) ([]string, error) {
	names := make([]string, len(s.calendars))
	for i, entry := range s.calendars {
		names[i] = entry.Summary
	}
	return names, nil
}

func (s *Store) ListEvents(ctx context.Context, filter model.EventsFilter) ([]*model.Event, error) {
	calendarID, name, err := s.calendarFor(filter.CalendarName)
	if err != nil {
		return nil, err
	}

	var events []*model.Event

	call := s.service.Events.List(calendarID).
		TimeMin(filter.From.Format(time.RFC3339)).
		TimeMax(filter.To.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			event, err := decodeEvent(item, name)
			if err != nil {
				s.logger.Errorw("skipping undecodable event", "id", item.Id, "err", err)
				continue
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return events, nil
}

func (s *Store) CreateEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error) {
	calendarID, name, err := s.calendarFor(info.CalendarName)
	if err != nil {
		return nil, err
	}

	gEvent := &calendar.Event{
		Summary:     info.Title,
		Description: info.Notes,
		Location:    info.Location,
		Start:       encodeTime(info.StartTime, info.AllDay),
		End:         encodeTime(info.EndTime, info.AllDay),
		Reminders:   encodeReminders(info.AlarmsMinutesOffsets),
	}

	if info.RecurrenceRule != nil {
		rule, err := info.RecurrenceRule.ICalString()
		if err != nil {
			return nil, err
		}
		gEvent.Recurrence = []string{"RRULE:" + rule}
	}

	created, err := s.service.Events.Insert(calendarID, gEvent).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	return decodeEvent(created, name)
}

func (s *Store) UpdateEvent(ctx context.Context, id string, info *model.EventUpdate) (*model.Event, error) {
	calendarID, name, err := s.calendarFor("")
	if err != nil {
		return nil, err
	}

	existing, err := s.service.Events.Get(calendarID, id).Context(ctx).Do()
	if err != nil {
		return nil, wrapNotFound(err, "get event")
	}

	event, err := decodeEvent(existing, name)
	if err != nil {
		return nil, err
	}
	info.Apply(event)

	gEvent := &calendar.Event{
		Summary:     event.Title,
		Description: event.Notes,
		Location:    event.Location,
		Start:       encodeTime(event.StartTime, event.AllDay),
		End:         encodeTime(event.EndTime, event.AllDay),
		Reminders:   encodeReminders(event.AlarmsMinutesOffsets),
	}
	if event.RecurrenceRule != nil {
		rule, err := event.RecurrenceRule.ICalString()
		if err != nil {
			return nil, err
		}
		gEvent.Recurrence = []string{"RRULE:" + rule}
	}

	updated, err := s.service.Events.Patch(calendarID, id, gEvent).Context(ctx).Do()
	if err != nil {
		return nil, wrapNotFound(err, "patch event")
	}

	return decodeEvent(updated, name)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	calendarID, _, err := s.calendarFor("")
	if err != nil {
		return err
	}

	if err := s.service.Events.Delete(calendarID, id).Context(ctx).Do(); err != nil {
		return wrapNotFound(err, "delete event")
	}

	return nil
}

// calendarFor resolves a calendar name to its backend id. An empty name means
// the configured calendar.
func (s *Store) calendarFor(name string) (string, string, error) {
	if name == "" {
		id := config.GoogleCalendarID()
		for _, entry := range s.calendars {
			if entry.Id == id {
				return entry.Id, entry.Summary, nil
			}
		}
		return id, id, nil
	}

	for _, entry := range s.calendars {
		if strings.EqualFold(entry.Summary, name) {
			return entry.Id, entry.Summary, nil
		}
	}

	return "", "", fmt.Errorf("unknown calendar %q: %w", name, model.ErrNoRecord)
}

func wrapNotFound(err error, op string) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && (gErr.Code == 404 || gErr.Code == 410) {
		return model.ErrNoRecord
	}
	return fmt.Errorf("%s: %w", op, err)
}
