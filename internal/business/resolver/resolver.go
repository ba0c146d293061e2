// Package resolver turns the loosely-typed action/params payload produced by
// the language model into exactly one calendar operation.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calendav/assistant-backend/internal/intent"
	"github.com/calendav/assistant-backend/internal/model"
)

const (
	defaultLookBehind = 30 * 24 * time.Hour
	defaultLookAhead  = 90 * 24 * time.Hour

	defaultListSpan = 30 * 24 * time.Hour

	defaultEventDuration = time.Hour
	untitledEvent        = "Untitled Event"
)

type OutcomeKind int

const (
	OutcomeCreated OutcomeKind = iota
	OutcomeListed
	OutcomeUpdated
	OutcomeDeleted
	// OutcomeAmbiguous is a valid outcome, not an error: several events
	// matched and the caller must choose.
	OutcomeAmbiguous
	OutcomeNotFound
	// OutcomeAnswer carries the model's explanation for general queries.
	OutcomeAnswer
	OutcomeError
)

type Outcome struct {
	Kind    OutcomeKind
	Message string
	Event   *model.Event
	// Events holds listing results; Candidates holds ambiguous matches in
	// original fetch order.
	Events     []*model.Event
	Candidates []*model.Event
}

type Service struct {
	logger *zap.SugaredLogger
	events eventsService
	now    func() time.Time
}

type eventsService interface {
	ListEvents(ctx context.Context, filter model.EventsFilter) ([]*model.Event, error)
	CreateEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error)
	UpdateEvent(ctx context.Context, id string, info *model.EventUpdate) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

func NewService(logger *zap.SugaredLogger, events eventsService) *Service {
	return &Service{
		logger: logger,
		events: events,
		now:    time.Now,
	}
}

// Resolve maps a parsed command to one concrete operation. Malformed or
// underspecified payloads become error/not-found outcomes rather than Go
// errors; an error return means the backend operation itself failed and
// nothing was applied.
func (s *Service) Resolve(ctx context.Context, cmd *intent.Command) (*Outcome, error) {
	switch cmd.Action {
	case intent.ActionCreateEvent:
		return s.create(ctx, cmd.Params)
	case intent.ActionListEvents:
		return s.list(ctx, cmd.Params)
	case intent.ActionUpdateEvent:
		return s.update(ctx, cmd.Params)
	case intent.ActionDeleteEvent:
		return s.delete(ctx, cmd.Params)
	case intent.ActionError:
		message := cmd.Explanation
		if message == "" {
			message = cmd.Error
		}
		return &Outcome{Kind: OutcomeError, Message: message}, nil
	default:
		message := cmd.Explanation
		if message == "" {
			message = "Understood, but no calendar operation was requested."
		}
		return &Outcome{Kind: OutcomeAnswer, Message: message}, nil
	}
}

func (s *Service) create(ctx context.Context, params intent.Params) (*Outcome, error) {
	if params.StartTime == "" && params.StartDate == "" {
		return &Outcome{Kind: OutcomeError, Message: "a start time is required to create an event"}, nil
	}

	startRaw := params.StartTime
	if startRaw == "" {
		startRaw = params.StartDate
	}
	start, err := model.ParseTimestamp(startRaw)
	if err != nil {
		return &Outcome{Kind: OutcomeError, Message: fmt.Sprintf("unparseable start time %q", startRaw)}, nil
	}

	end := start.Add(defaultEventDuration)
	if params.EndTime != "" {
		end, err = model.ParseTimestamp(params.EndTime)
		if err != nil {
			return &Outcome{Kind: OutcomeError, Message: fmt.Sprintf("unparseable end time %q", params.EndTime)}, nil
		}
	}

	title := params.Title
	if title == "" {
		title = untitledEvent
	}

	event, err := s.events.CreateEvent(ctx, &model.EventCreate{
		Title:        title,
		StartTime:    start,
		EndTime:      end,
		CalendarName: params.CalendarName,
		Location:     params.Location,
		Notes:        params.Description,
		AllDay:       model.DateOnly(startRaw),
	})
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	return &Outcome{
		Kind:    OutcomeCreated,
		Message: "Created event: " + event.Title,
		Event:   event,
	}, nil
}

func (s *Service) list(ctx context.Context, params intent.Params) (*Outcome, error) {
	startRaw := params.StartDate
	if startRaw == "" {
		startRaw = params.StartTime
	}
	endRaw := params.EndDate
	if endRaw == "" {
		endRaw = params.EndTime
	}

	start := model.StartOfDay(s.now())
	if startRaw != "" {
		var err error
		start, err = model.ParseTimestamp(startRaw)
		if err != nil {
			return &Outcome{Kind: OutcomeError, Message: fmt.Sprintf("unparseable start date %q", startRaw)}, nil
		}
	}

	end := start.Add(defaultListSpan)
	if endRaw != "" {
		var err error
		end, err = model.ParseTimestamp(endRaw)
		if err != nil {
			return &Outcome{Kind: OutcomeError, Message: fmt.Sprintf("unparseable end date %q", endRaw)}, nil
		}
		if model.DateOnly(endRaw) {
			// An inclusive "until Friday" means through the end of Friday.
			end = end.Add(24 * time.Hour)
		}
	}

	events, err := s.events.ListEvents(ctx, model.EventsFilter{
		From:         start,
		To:           end,
		CalendarName: params.CalendarName,
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return &Outcome{Kind: OutcomeListed, Events: events}, nil
}

func (s *Service) update(ctx context.Context, params intent.Params) (*Outcome, error) {
	searchTitle := params.SearchTitle
	if searchTitle == "" {
		searchTitle = params.Title
	}

	id, outcome, err := s.locate(ctx, params.EventID, searchTitle, searchDate(params))
	if outcome != nil || err != nil {
		return outcome, err
	}

	update := &model.EventUpdate{}
	if params.Title != "" && params.Title != searchTitle {
		// Re-applying the title used to find the event would be a no-op
		// overwrite when only time or location changed.
		update.Title = &params.Title
	}
	if params.StartTime != "" {
		start, err := model.ParseTimestamp(params.StartTime)
		if err != nil {
			return &Outcome{Kind: OutcomeError, Message: fmt.Sprintf("unparseable start time %q", params.StartTime)}, nil
		}
		update.StartTime = &start
	}
	if params.EndTime != "" {
		end, err := model.ParseTimestamp(params.EndTime)
		if err != nil {
			return &Outcome{Kind: OutcomeError, Message: fmt.Sprintf("unparseable end time %q", params.EndTime)}, nil
		}
		update.EndTime = &end
	}
	if params.Location != "" {
		update.Location = &params.Location
	}
	if params.Description != "" {
		update.Notes = &params.Description
	}
	if params.CalendarName != "" {
		update.CalendarName = &params.CalendarName
	}

	if update.Empty() {
		return &Outcome{Kind: OutcomeError, Message: "nothing to update"}, nil
	}

	event, err := s.events.UpdateEvent(ctx, id, update)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return &Outcome{Kind: OutcomeNotFound, Message: fmt.Sprintf("the backend no longer knows event %s", id)}, nil
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	return &Outcome{
		Kind:    OutcomeUpdated,
		Message: "Updated event: " + event.Title,
		Event:   event,
	}, nil
}

func (s *Service) delete(ctx context.Context, params intent.Params) (*Outcome, error) {
	searchTitle := params.Title
	if searchTitle == "" {
		searchTitle = params.SearchTitle
	}

	// For deletes a concrete start_time is a search constraint too; its day
	// restricts the window.
	date := params.StartDate
	if date == "" {
		date = params.StartTime
	}
	if date == "" {
		date = params.SearchDate
	}

	id, outcome, err := s.locate(ctx, params.EventID, searchTitle, date)
	if outcome != nil || err != nil {
		return outcome, err
	}

	if err := s.events.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return &Outcome{Kind: OutcomeNotFound, Message: fmt.Sprintf("the backend no longer knows event %s", id)}, nil
		}
		return nil, fmt.Errorf("delete event: %w", err)
	}

	message := "Deleted event"
	if searchTitle != "" {
		message = "Deleted event: " + searchTitle
	}
	return &Outcome{Kind: OutcomeDeleted, Message: message}, nil
}

// searchDate picks the date constraint for an update lookup. start_time is
// deliberately excluded there: it is the new time, not where the event is now.
func searchDate(params intent.Params) string {
	if params.SearchDate != "" {
		return params.SearchDate
	}
	return params.StartDate
}

// locate resolves the target event for update/delete. With an explicit id
// there is nothing to do. Otherwise it runs the three-way resolution: build a
// search window, fetch candidates through the compensated listing, and fuzzy
// match on the title. Exactly one match yields an id; zero or several yield a
// terminal outcome.
func (s *Service) locate(ctx context.Context, explicitID, title, date string) (string, *Outcome, error) {
	if explicitID != "" {
		return explicitID, nil, nil
	}
	if title == "" {
		return "", &Outcome{Kind: OutcomeError, Message: "an event title or id is required"}, nil
	}

	from, to, constrained := s.searchWindow(date)

	candidates, err := s.events.ListEvents(ctx, model.EventsFilter{From: from, To: to})
	if err != nil {
		return "", nil, fmt.Errorf("fetch candidates: %w", err)
	}

	var matches []*model.Event
	for _, candidate := range candidates {
		if titlesMatch(title, candidate.Title) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		message := fmt.Sprintf("no event with a title matching %q", title)
		if constrained {
			message += fmt.Sprintf(" between %s and %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
		return "", &Outcome{Kind: OutcomeNotFound, Message: message}, nil
	case 1:
		match := matches[0]
		if !match.Identifier.Stable() {
			s.logger.Warnw("acting on derived identifier, not stable across re-fetches",
				"identifier", match.Identifier.Value,
				"title", match.Title,
			)
		}
		return match.ID(), nil, nil
	default:
		return "", &Outcome{
			Kind:       OutcomeAmbiguous,
			Message:    fmt.Sprintf("found %d events matching %q, please pick one", len(matches), title),
			Candidates: matches,
		}, nil
	}
}

// searchWindow restricts the lookup to a single day when a date constraint is
// known (a date-time is truncated to its calendar day), and otherwise falls
// back to a wide default window around now.
func (s *Service) searchWindow(date string) (time.Time, time.Time, bool) {
	if date != "" {
		if day, err := model.ParseTimestamp(date); err == nil {
			start := model.StartOfDay(day)
			return start, start.Add(24 * time.Hour), true
		}
		s.logger.Debugw("ignoring unparseable search date", "date", date)
	}

	now := s.now()
	return now.Add(-defaultLookBehind), now.Add(defaultLookAhead), false
}

// titlesMatch implements the fuzzy lookup: a candidate matches when either
// title contains the other, case-insensitively.
func titlesMatch(search, title string) bool {
	a := strings.ToLower(search)
	b := strings.ToLower(title)
	return strings.Contains(b, a) || strings.Contains(a, b)
}
