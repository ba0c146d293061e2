// Package caldav implements the calendar store against a CalDAV backend.
// Events travel as iCalendar payloads and are decoded through internal/ics;
// updates are a fetch-modify-put cycle on the object identified by the UID.
package caldav

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calendav/assistant-backend/internal/config"
	"github.com/calendav/assistant-backend/internal/ics"
	"github.com/calendav/assistant-backend/internal/model"
)

type Store struct {
	logger    *zap.SugaredLogger
	client    *caldav.Client
	calendars []caldav.Calendar
}

func NewStore(ctx context.Context, logger *zap.SugaredLogger) (*Store, error) {
	httpClient := webdav.HTTPClientWithBasicAuth(nil, config.CalDAVUsername(), config.CalDAVPassword())

	client, err := caldav.NewClient(httpClient, config.CalDAVURL())
	if err != nil {
		return nil, fmt.Errorf("caldav client: %w", err)
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find calendar home set: %w", err)
	}

	calendars, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}
	if len(calendars) == 0 {
		return nil, fmt.Errorf("no calendars at %s", config.CalDAVURL())
	}

	logger.Infow("connected to CalDAV backend", "calendars", len(calendars))

	return &Store{
		logger:    logger,
		client:    client,
		calendars: calendars,
	}, nil
}

func (s *Store) CalendarNames(_ context.Context) ([]string, error) {
	names := make([]string, len(s.calendars))
	for i, cal := range s.calendars {
		names[i] = calendarName(cal)
	}
	return names, nil
}

func (s *Store) ListEvents(ctx context.Context, filter model.EventsFilter) ([]*model.Event, error) {
	var events []*model.Event

	for _, cal := range s.calendars {
		if filter.CalendarName != "" && !strings.EqualFold(calendarName(cal), filter.CalendarName) {
			continue
		}

		objects, err := s.client.QueryCalendar(ctx, cal.Path, &caldav.CalendarQuery{
			CompRequest: caldav.CalendarCompRequest{
				Name:     ical.CompCalendar,
				AllProps: true,
				AllComps: true,
			},
			CompFilter: caldav.CompFilter{
				Name: ical.CompCalendar,
				Comps: []caldav.CompFilter{{
					Name:  ical.CompEvent,
					Start: filter.From,
					End:   filter.To,
				}},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("query calendar %s: %w", cal.Path, err)
		}

		for _, object := range objects {
			event, err := ics.DecodeObject(object.Data, ics.Reference{
				Path:         object.Path,
				CalendarName: calendarName(cal),
			})
			if err != nil {
				// Surface the broken object but keep the listing usable.
				s.logger.Errorw("skipping undecodable calendar object", "path", object.Path, "err", err)
				continue
			}
			events = append(events, event)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})

	return events, nil
}

func (s *Store) CreateEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error) {
	cal, err := s.calendarFor(info.CalendarName)
	if err != nil {
		return nil, err
	}

	uid := uuid.NewString()
	object, err := ics.EncodeCreate(info, uid)
	if err != nil {
		return nil, err
	}

	objectPath := path.Join(cal.Path, uid+".ics")
	if _, err := s.client.PutCalendarObject(ctx, objectPath, object); err != nil {
		return nil, fmt.Errorf("put calendar object: %w", err)
	}

	return ics.DecodeObject(object, ics.Reference{
		Path:         objectPath,
		CalendarName: calendarName(*cal),
	})
}

func (s *Store) UpdateEvent(ctx context.Context, id string, info *model.EventUpdate) (*model.Event, error) {
	object, name, err := s.findObject(ctx, id)
	if err != nil {
		return nil, err
	}

	event, err := ics.DecodeObject(object.Data, ics.Reference{Path: object.Path, CalendarName: name})
	if err != nil {
		return nil, err
	}

	info.Apply(event)

	encoded, err := ics.EncodeEvent(event)
	if err != nil {
		return nil, err
	}

	if _, err := s.client.PutCalendarObject(ctx, object.Path, encoded); err != nil {
		return nil, fmt.Errorf("put calendar object: %w", err)
	}

	return event, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	object, _, err := s.findObject(ctx, id)
	if err != nil {
		return err
	}

	if err := s.client.RemoveAll(ctx, object.Path); err != nil {
		if isNotFound(err) {
			return model.ErrNoRecord
		}
		return fmt.Errorf("remove calendar object: %w", err)
	}

	return nil
}

// findObject locates the calendar object for an identifier. Identifiers that
// contain a slash are object paths and fetched directly; anything else is
// treated as a UID and matched with a text-match query.
func (s *Store) findObject(ctx context.Context, id string) (*caldav.CalendarObject, string, error) {
	if strings.Contains(id, "/") {
		object, err := s.client.GetCalendarObject(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return nil, "", model.ErrNoRecord
			}
			return nil, "", fmt.Errorf("get calendar object: %w", err)
		}
		return object, s.calendarNameForPath(id), nil
	}

	for _, cal := range s.calendars {
		objects, err := s.client.QueryCalendar(ctx, cal.Path, &caldav.CalendarQuery{
			CompRequest: caldav.CalendarCompRequest{
				Name:     ical.CompCalendar,
				AllProps: true,
				AllComps: true,
			},
			CompFilter: caldav.CompFilter{
				Name: ical.CompCalendar,
				Comps: []caldav.CompFilter{{
					Name: ical.CompEvent,
					Props: []caldav.PropFilter{{
						Name:      ical.PropUID,
						TextMatch: &caldav.TextMatch{Text: id},
					}},
				}},
			},
		})
		if err != nil {
			return nil, "", fmt.Errorf("query calendar %s: %w", cal.Path, err)
		}
		if len(objects) != 0 {
			return &objects[0], calendarName(cal), nil
		}
	}

	return nil, "", model.ErrNoRecord
}

func (s *Store) calendarFor(name string) (*caldav.Calendar, error) {
	if name == "" {
		name = config.DefaultCalendar()
	}
	if name == "" {
		return &s.calendars[0], nil
	}
	for i := range s.calendars {
		if strings.EqualFold(calendarName(s.calendars[i]), name) {
			return &s.calendars[i], nil
		}
	}
	return nil, fmt.Errorf("unknown calendar %q: %w", name, model.ErrNoRecord)
}

func (s *Store) calendarNameForPath(objectPath string) string {
	for _, cal := range s.calendars {
		if strings.HasPrefix(objectPath, cal.Path) {
			return calendarName(cal)
		}
	}
	return ""
}

func calendarName(cal caldav.Calendar) string {
	if cal.Name != "" {
		return cal.Name
	}
	return path.Base(cal.Path)
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "404")
}
