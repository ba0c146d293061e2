package api

import (
	"strings"
	"time"

	"github.com/calendav/assistant-backend/internal/business/resolver"
	"github.com/calendav/assistant-backend/internal/model"
)

const dateTimeFormat = "2006-01-02T15:04:05"

// dateTime accepts the same lenient timestamp formats the resolver does and
// always renders as a naive local date-time.
type dateTime time.Time

func (d *dateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}

	t, err := model.ParseTimestamp(s)
	if err != nil {
		return err
	}

	*d = dateTime(t)
	return nil
}

func (d dateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format(dateTimeFormat) + `"`), nil
}

type eventResp struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	StartTime      dateTime `json:"start_time"`
	EndTime        dateTime `json:"end_time"`
	CalendarName   string   `json:"calendar_name,omitempty"`
	Location       string   `json:"location,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	URL            string   `json:"url,omitempty"`
	AllDay         bool     `json:"all_day,omitempty"`
	Alarms         []int    `json:"alarms_minutes_offsets,omitempty"`
	Organizer      string   `json:"organizer,omitempty"`
	Attendees      []string `json:"attendees,omitempty"`
	RecurrenceRule string   `json:"recurrence_rule,omitempty"`
}

func mapToEventResp(event *model.Event) (*eventResp, error) {
	resp := &eventResp{
		ID:           event.ID(),
		Title:        event.Title,
		StartTime:    dateTime(event.StartTime),
		EndTime:      dateTime(event.EndTime),
		CalendarName: event.CalendarName,
		Location:     event.Location,
		Notes:        event.Notes,
		URL:          event.URL,
		AllDay:       event.AllDay,
		Alarms:       event.AlarmsMinutesOffsets,
		Organizer:    event.Organizer,
		Attendees:    event.Attendees,
	}

	if event.RecurrenceRule != nil {
		rule, err := event.RecurrenceRule.ICalString()
		if err != nil {
			return nil, err
		}
		resp.RecurrenceRule = rule
	}

	return resp, nil
}

var outcomeKinds = map[resolver.OutcomeKind]string{
	resolver.OutcomeCreated:   "created",
	resolver.OutcomeListed:    "listed",
	resolver.OutcomeUpdated:   "updated",
	resolver.OutcomeDeleted:   "deleted",
	resolver.OutcomeAmbiguous: "ambiguous",
	resolver.OutcomeNotFound:  "not_found",
	resolver.OutcomeAnswer:    "answer",
	resolver.OutcomeError:     "error",
}

type outcomeResp struct {
	Kind       string       `json:"kind"`
	Message    string       `json:"message,omitempty"`
	Event      *eventResp   `json:"event,omitempty"`
	Events     []*eventResp `json:"events,omitempty"`
	Candidates []*eventResp `json:"candidates,omitempty"`
}

func mapToOutcomeResp(outcome *resolver.Outcome) (*outcomeResp, error) {
	resp := &outcomeResp{
		Kind:    outcomeKinds[outcome.Kind],
		Message: outcome.Message,
	}

	var err error
	if outcome.Event != nil {
		if resp.Event, err = mapToEventResp(outcome.Event); err != nil {
			return nil, err
		}
	}
	if resp.Events, err = mapSlice(outcome.Events, mapToEventResp); err != nil {
		return nil, err
	}
	if resp.Candidates, err = mapSlice(outcome.Candidates, mapToEventResp); err != nil {
		return nil, err
	}

	return resp, nil
}
