package resolver

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/calendav/assistant-backend/internal/intent"
	"github.com/calendav/assistant-backend/internal/model"
)

type fakeEvents struct {
	listResult []*model.Event
	listCalls  []model.EventsFilter

	created   *model.EventCreate
	updatedID string
	update    *model.EventUpdate
	updateErr error
	deletedID string
	deleteErr error
}

func (f *fakeEvents) ListEvents(_ context.Context, filter model.EventsFilter) ([]*model.Event, error) {
	f.listCalls = append(f.listCalls, filter)
	return f.listResult, nil
}

func (f *fakeEvents) CreateEvent(_ context.Context, info *model.EventCreate) (*model.Event, error) {
	f.created = info
	return &model.Event{
		Identifier: model.Identifier{Value: "created-1", Source: model.IdentifierBackend},
		Title:      info.Title,
		StartTime:  info.StartTime,
		EndTime:    info.EndTime,
		AllDay:     info.AllDay,
	}, nil
}

func (f *fakeEvents) UpdateEvent(_ context.Context, id string, info *model.EventUpdate) (*model.Event, error) {
	f.updatedID = id
	f.update = info
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	event := &model.Event{
		Identifier: model.Identifier{Value: id, Source: model.IdentifierBackend},
		Title:      "updated",
	}
	info.Apply(event)
	return event, nil
}

func (f *fakeEvents) DeleteEvent(_ context.Context, id string) error {
	f.deletedID = id
	return f.deleteErr
}

func newService(events *fakeEvents, now time.Time) *Service {
	s := NewService(zap.NewNop().Sugar(), events)
	s.now = func() time.Time { return now }
	return s
}

func backendEvent(id, title string, start time.Time) *model.Event {
	return &model.Event{
		Identifier: model.Identifier{Value: id, Source: model.IdentifierBackend},
		Title:      title,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}
}

var testNow = time.Date(2025, 11, 11, 15, 0, 0, 0, time.Local)

func TestResolveCreate(t *testing.T) {
	events := &fakeEvents{}
	s := newService(events, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionCreateEvent,
		Params: intent.Params{StartTime: "2025-11-18T09:00:00"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if outcome.Kind != OutcomeCreated {
		t.Fatalf("Kind = %v, want OutcomeCreated", outcome.Kind)
	}
	if events.created.Title != "Untitled Event" {
		t.Errorf("Title = %q, want default", events.created.Title)
	}

	wantStart := time.Date(2025, 11, 18, 9, 0, 0, 0, time.Local)
	if !events.created.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want %v", events.created.StartTime, wantStart)
	}
	if !events.created.EndTime.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("EndTime = %v, want start+1h", events.created.EndTime)
	}
	if events.created.AllDay {
		t.Error("AllDay = true for a timed start")
	}
}

func TestResolveCreateAllDay(t *testing.T) {
	events := &fakeEvents{}
	s := newService(events, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionCreateEvent,
		Params: intent.Params{Title: "Holiday", StartDate: "2025-11-18"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if outcome.Kind != OutcomeCreated {
		t.Fatalf("Kind = %v, want OutcomeCreated", outcome.Kind)
	}
	if !events.created.AllDay {
		t.Error("AllDay = false for a date-only start")
	}
}

func TestResolveCreateRequiresStart(t *testing.T) {
	s := newService(&fakeEvents{}, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionCreateEvent,
		Params: intent.Params{Title: "No time"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != OutcomeError {
		t.Errorf("Kind = %v, want OutcomeError", outcome.Kind)
	}
}

func TestResolveListDefaults(t *testing.T) {
	events := &fakeEvents{}
	s := newService(events, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{Action: intent.ActionListEvents})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != OutcomeListed {
		t.Fatalf("Kind = %v, want OutcomeListed", outcome.Kind)
	}

	wantFrom := time.Date(2025, 11, 11, 0, 0, 0, 0, time.Local)
	filter := events.listCalls[0]
	if !filter.From.Equal(wantFrom) {
		t.Errorf("From = %v, want today's midnight", filter.From)
	}
	if !filter.To.Equal(wantFrom.Add(30 * 24 * time.Hour)) {
		t.Errorf("To = %v, want +30 days", filter.To)
	}
}

func TestResolveListInclusiveEndDate(t *testing.T) {
	events := &fakeEvents{}
	s := newService(events, testNow)

	_, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionListEvents,
		Params: intent.Params{StartDate: "2025-11-12", EndDate: "2025-11-14"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	filter := events.listCalls[0]
	wantTo := time.Date(2025, 11, 15, 0, 0, 0, 0, time.Local)
	if !filter.To.Equal(wantTo) {
		t.Errorf("To = %v, want end of the named day (%v)", filter.To, wantTo)
	}
}

func TestResolveUpdateFuzzyMatch(t *testing.T) {
	start := time.Date(2025, 11, 18, 9, 0, 0, 0, time.Local)
	events := &fakeEvents{listResult: []*model.Event{
		backendEvent("1", "Team Sync", start),
		backendEvent("2", "Lunch", start.Add(3*time.Hour)),
	}}
	s := newService(events, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionUpdateEvent,
		Params: intent.Params{SearchTitle: "team", StartTime: "2025-11-18T10:00:00"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if outcome.Kind != OutcomeUpdated {
		t.Fatalf("Kind = %v, want OutcomeUpdated (message %q)", outcome.Kind, outcome.Message)
	}
	if events.updatedID != "1" {
		t.Errorf("updated id = %q, want 1", events.updatedID)
	}
	if events.update.Title != nil {
		t.Errorf("Title = %v, want nil (not part of the update)", *events.update.Title)
	}
	wantStart := time.Date(2025, 11, 18, 10, 0, 0, 0, time.Local)
	if events.update.StartTime == nil || !events.update.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want %v", events.update.StartTime, wantStart)
	}
}

func TestResolveUpdateTitleNotReapplied(t *testing.T) {
	start := time.Date(2025, 11, 18, 9, 0, 0, 0, time.Local)
	events := &fakeEvents{listResult: []*model.Event{backendEvent("1", "Team Sync", start)}}
	s := newService(events, testNow)

	// The title was only used to find the event; with nothing else to change
	// the update is empty.
	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionUpdateEvent,
		Params: intent.Params{Title: "Team Sync"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != OutcomeError {
		t.Errorf("Kind = %v, want OutcomeError (nothing to update)", outcome.Kind)
	}
	if events.updatedID != "" {
		t.Errorf("UpdateEvent was called with id %q, want no call", events.updatedID)
	}
}

func TestResolveUpdateAmbiguous(t *testing.T) {
	start := time.Date(2025, 11, 18, 9, 0, 0, 0, time.Local)
	events := &fakeEvents{listResult: []*model.Event{
		backendEvent("1", "Team Meeting", start),
		backendEvent("2", "Client Meeting", start.Add(2*time.Hour)),
	}}
	s := newService(events, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionUpdateEvent,
		Params: intent.Params{SearchTitle: "meeting", Location: "Room 2"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if outcome.Kind != OutcomeAmbiguous {
		t.Fatalf("Kind = %v, want OutcomeAmbiguous", outcome.Kind)
	}
	if len(outcome.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(outcome.Candidates))
	}
	// Candidates keep the backend's fetch order.
	if outcome.Candidates[0].ID() != "1" || outcome.Candidates[1].ID() != "2" {
		t.Errorf("candidate order = [%s, %s], want [1, 2]",
			outcome.Candidates[0].ID(), outcome.Candidates[1].ID())
	}
}

func TestResolveUpdateNotFound(t *testing.T) {
	events := &fakeEvents{}
	s := newService(events, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionUpdateEvent,
		Params: intent.Params{SearchTitle: "nonexistent", Location: "x"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != OutcomeNotFound {
		t.Errorf("Kind = %v, want OutcomeNotFound", outcome.Kind)
	}
}

func TestResolveUpdateDefaultSearchWindow(t *testing.T) {
	events := &fakeEvents{}
	s := newService(events, testNow)

	_, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionUpdateEvent,
		Params: intent.Params{SearchTitle: "anything", Location: "x"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	filter := events.listCalls[0]
	if !filter.From.Equal(testNow.Add(-30 * 24 * time.Hour)) {
		t.Errorf("From = %v, want now-30d", filter.From)
	}
	if !filter.To.Equal(testNow.Add(90 * 24 * time.Hour)) {
		t.Errorf("To = %v, want now+90d", filter.To)
	}
}

func TestResolveUpdateExplicitID(t *testing.T) {
	events := &fakeEvents{}
	s := newService(events, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionUpdateEvent,
		Params: intent.Params{EventID: "abc", Location: "Room 9"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if outcome.Kind != OutcomeUpdated {
		t.Fatalf("Kind = %v, want OutcomeUpdated", outcome.Kind)
	}
	if len(events.listCalls) != 0 {
		t.Errorf("listing was called %d times with an explicit id, want 0", len(events.listCalls))
	}
	if events.updatedID != "abc" {
		t.Errorf("updated id = %q, want abc", events.updatedID)
	}
}

func TestResolveDeleteWithDateConstraint(t *testing.T) {
	day := time.Date(2025, 11, 12, 0, 0, 0, 0, time.Local)
	events := &fakeEvents{listResult: []*model.Event{
		backendEvent("7", "打游戏", day.Add(20*time.Hour)),
	}}
	s := newService(events, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionDeleteEvent,
		Params: intent.Params{Title: "打游戏", StartDate: "2025-11-12"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if outcome.Kind != OutcomeDeleted {
		t.Fatalf("Kind = %v, want OutcomeDeleted (message %q)", outcome.Kind, outcome.Message)
	}
	if events.deletedID != "7" {
		t.Errorf("deleted id = %q, want 7", events.deletedID)
	}

	filter := events.listCalls[0]
	if !filter.From.Equal(day) || !filter.To.Equal(day.Add(24*time.Hour)) {
		t.Errorf("search window = [%v, %v], want the named day", filter.From, filter.To)
	}
}

func TestResolveDeleteGoneUpstream(t *testing.T) {
	start := time.Date(2025, 11, 18, 9, 0, 0, 0, time.Local)
	events := &fakeEvents{
		listResult: []*model.Event{backendEvent("1", "Team Sync", start)},
		deleteErr:  model.ErrNoRecord,
	}
	s := newService(events, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action: intent.ActionDeleteEvent,
		Params: intent.Params{Title: "team"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != OutcomeNotFound {
		t.Errorf("Kind = %v, want OutcomeNotFound", outcome.Kind)
	}
}

func TestResolveErrorAndQueryActions(t *testing.T) {
	s := newService(&fakeEvents{}, testNow)

	outcome, err := s.Resolve(context.Background(), &intent.Command{
		Action:      intent.ActionError,
		Explanation: "could not understand",
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != OutcomeError || outcome.Message != "could not understand" {
		t.Errorf("error action outcome = %+v", outcome)
	}

	outcome, err = s.Resolve(context.Background(), &intent.Command{
		Action:      intent.ActionQuery,
		Explanation: "you have a busy week",
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != OutcomeAnswer || outcome.Message != "you have a busy week" {
		t.Errorf("query action outcome = %+v", outcome)
	}
}

func TestTitlesMatch(t *testing.T) {
	tests := []struct {
		search, title string
		want          bool
	}{
		{"team", "Team Sync", true},
		{"Team Sync Weekly", "Team Sync", true},
		{"TEAM SYNC", "team sync", true},
		{"lunch", "Team Sync", false},
	}

	for _, tt := range tests {
		if got := titlesMatch(tt.search, tt.title); got != tt.want {
			t.Errorf("titlesMatch(%q, %q) = %v, want %v", tt.search, tt.title, got, tt.want)
		}
	}
}
