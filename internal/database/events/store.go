package events

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/calendav/assistant-backend/internal/database"
	"github.com/calendav/assistant-backend/internal/model"
)

// Store is the postgres calendar backend. Recurring events are stored as a
// single row holding the series start and the RRULE text; listings expand
// them into occurrences, with instance identifiers of the form "<id>_<unix>".
type Store struct {
	logger *zap.SugaredLogger
	db     database.PGX
	repo   *Repository
	now    func() time.Time
}

func NewStore(logger *zap.SugaredLogger, db database.PGX) *Store {
	return &Store{
		logger: logger,
		db:     db,
		repo:   NewRepository(),
		now:    time.Now,
	}
}

func (s *Store) CalendarNames(ctx context.Context) ([]string, error) {
	return s.repo.CalendarNames(ctx, s.db)
}

func (s *Store) ListEvents(ctx context.Context, filter model.EventsFilter) ([]*model.Event, error) {
	baseEvents, err := s.repo.GetEvents(ctx, s.db, filter)
	if err != nil {
		return nil, fmt.Errorf("eventsRepository.GetEvents: %w", err)
	}

	var res []*model.Event

	for _, e := range baseEvents {
		if e.RecurrenceRule == nil {
			res = append(res, e)
			continue
		}

		occurrences, err := s.expand(e, filter)
		if err != nil {
			return nil, err
		}
		res = append(res, occurrences...)
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].StartTime.Before(res[j].StartTime)
	})

	return res, nil
}

func (s *Store) expand(e *model.Event, filter model.EventsFilter) ([]*model.Event, error) {
	ruleText, err := e.RecurrenceRule.ICalString()
	if err != nil {
		return nil, err
	}

	rOption, err := rrule.StrToROption(ruleText)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence rule %q: %w", ruleText, err)
	}
	rOption.Dtstart = e.StartTime

	rule, err := rrule.NewRRule(*rOption)
	if err != nil {
		return nil, fmt.Errorf("make rule: %w", err)
	}

	duration := e.EndTime.Sub(e.StartTime)

	var res []*model.Event
	for _, r := range rule.Between(e.StartTime, filter.To.Add(-1), true) {
		from := r
		to := r.Add(duration)

		if filter.To.Before(from) || to.Before(filter.From) {
			continue
		}

		occurrence := *e
		occurrence.Identifier = model.Identifier{
			Value:  fmt.Sprintf("%v_%v", e.Identifier.Value, from.Unix()),
			Source: model.IdentifierBackend,
		}
		occurrence.StartTime = from
		occurrence.EndTime = to
		res = append(res, &occurrence)
	}

	return res, nil
}

func (s *Store) CreateEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error) {
	id, err := s.repo.CreateEvent(ctx, s.db, info, s.now())
	if err != nil {
		return nil, fmt.Errorf("eventsRepository.CreateEvent: %w", err)
	}

	event, err := s.repo.GetEventByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("eventsRepository.GetEventByID: %w", err)
	}

	return event, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, info *model.EventUpdate) (*model.Event, error) {
	rowID, err := baseID(id)
	if err != nil {
		return nil, err
	}

	event, err := s.repo.GetEventByID(ctx, s.db, rowID)
	if err != nil {
		return nil, err
	}

	info.Apply(event)

	if err := s.repo.UpdateEvent(ctx, s.db, rowID, event, s.now()); err != nil {
		return nil, err
	}

	return s.repo.GetEventByID(ctx, s.db, rowID)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	rowID, err := baseID(id)
	if err != nil {
		return err
	}

	return s.repo.DeleteEvent(ctx, s.db, rowID)
}

// baseID resolves an identifier to its series row. Occurrence identifiers
// carry a "_<unix>" suffix that is dropped here; mutations always target the
// whole series.
func baseID(id string) (int64, error) {
	raw, _, _ := strings.Cut(id, "_")

	rowID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("identifier %q: %w", id, model.ErrNoRecord)
	}

	return rowID, nil
}
