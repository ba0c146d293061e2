package events

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/calendav/assistant-backend/internal/model"
)

type fakeStore struct {
	lastFilter model.EventsFilter
	events     []*model.Event
}

func (f *fakeStore) ListEvents(_ context.Context, filter model.EventsFilter) ([]*model.Event, error) {
	f.lastFilter = filter
	return f.events, nil
}

func (f *fakeStore) CreateEvent(_ context.Context, info *model.EventCreate) (*model.Event, error) {
	return &model.Event{Title: info.Title, StartTime: info.StartTime, EndTime: info.EndTime}, nil
}

func (f *fakeStore) UpdateEvent(_ context.Context, _ string, _ *model.EventUpdate) (*model.Event, error) {
	return nil, model.ErrNoRecord
}

func (f *fakeStore) DeleteEvent(_ context.Context, _ string) error { return nil }

func (f *fakeStore) CalendarNames(_ context.Context) ([]string, error) {
	return []string{"Work"}, nil
}

func event(title string, start time.Time) *model.Event {
	return &model.Event{
		Identifier: model.Identifier{Value: title, Source: model.IdentifierBackend},
		Title:      title,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}
}

func TestListEventsWidensSingleDayWindow(t *testing.T) {
	day := time.Date(2025, 11, 18, 0, 0, 0, 0, time.Local)

	store := &fakeStore{events: []*model.Event{
		event("day before", day.Add(-time.Hour)),
		event("morning", day.Add(9*time.Hour)),
		event("last minute", day.Add(24*time.Hour-time.Minute)),
		event("day after", day.Add(24*time.Hour)),
	}}
	service := NewService(zap.NewNop().Sugar(), store)

	got, err := service.ListEvents(context.Background(), model.EventsFilter{
		From: day,
		To:   day.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}

	wantFrom := time.Date(2025, 11, 3, 0, 0, 0, 0, time.Local)
	wantTo := time.Date(2025, 12, 18, 0, 0, 0, 0, time.Local)
	if !store.lastFilter.From.Equal(wantFrom) {
		t.Errorf("backend query From = %v, want %v", store.lastFilter.From, wantFrom)
	}
	if !store.lastFilter.To.Equal(wantTo) {
		t.Errorf("backend query To = %v, want %v", store.lastFilter.To, wantTo)
	}

	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(got), got)
	}
	if got[0].Title != "morning" || got[1].Title != "last minute" {
		t.Errorf("clipped events = [%s, %s], want [morning, last minute]", got[0].Title, got[1].Title)
	}
}

func TestListEventsMultiDayPassesThrough(t *testing.T) {
	from := time.Date(2025, 11, 18, 0, 0, 0, 0, time.Local)
	to := time.Date(2025, 11, 25, 0, 0, 0, 0, time.Local)

	store := &fakeStore{events: []*model.Event{
		event("outside", from.Add(-time.Hour)),
		event("inside", from.Add(time.Hour)),
	}}
	service := NewService(zap.NewNop().Sugar(), store)

	got, err := service.ListEvents(context.Background(), model.EventsFilter{From: from, To: to})
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}

	if !store.lastFilter.From.Equal(from) || !store.lastFilter.To.Equal(to) {
		t.Errorf("backend query = [%v, %v], want window unchanged", store.lastFilter.From, store.lastFilter.To)
	}

	// Pass-through means no local re-filtering either.
	if len(got) != 2 {
		t.Errorf("got %d events, want 2 (unclipped)", len(got))
	}
}

func TestListEventsOffsetDayPassesThrough(t *testing.T) {
	from := time.Date(2025, 11, 18, 9, 0, 0, 0, time.Local)
	to := from.Add(24 * time.Hour)

	store := &fakeStore{}
	service := NewService(zap.NewNop().Sugar(), store)

	if _, err := service.ListEvents(context.Background(), model.EventsFilter{From: from, To: to}); err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}

	if !store.lastFilter.From.Equal(from) || !store.lastFilter.To.Equal(to) {
		t.Errorf("a 24h window not starting at midnight must not be widened, got [%v, %v]",
			store.lastFilter.From, store.lastFilter.To)
	}
}

func TestCompensationWindow(t *testing.T) {
	day := time.Date(2025, 11, 18, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name        string
		from, to    time.Time
		compensated bool
	}{
		{"exact calendar day", day, day.Add(24 * time.Hour), true},
		{"two days", day, day.Add(48 * time.Hour), false},
		{"not at midnight", day.Add(time.Hour), day.Add(25 * time.Hour), false},
		{"short window", day, day.Add(12 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, compensated := compensationWindow(model.EventsFilter{From: tt.from, To: tt.to})
			if compensated != tt.compensated {
				t.Errorf("compensated = %v, want %v", compensated, tt.compensated)
			}
		})
	}
}
