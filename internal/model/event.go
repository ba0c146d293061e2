package model

import "time"

// DefaultTitle is substituted when a decoded event carries no summary.
const DefaultTitle = "No Title"

// Event is the canonical in-memory projection of a backend calendar event.
// It is rebuilt on every decode and discarded at the end of the request; the
// backend owns persistent identity. All timestamps are naive local wall times.
type Event struct {
	Identifier           Identifier
	Title                string
	StartTime            time.Time
	EndTime              time.Time
	CalendarName         string
	Location             string
	Notes                string
	URL                  string
	AllDay               bool
	AlarmsMinutesOffsets []int
	Organizer            string
	Attendees            []string
	LastModified         *time.Time
	RecurrenceRule       *RecurrenceRule
}

func (e *Event) ID() string {
	return e.Identifier.Value
}

// EventCreate carries the fields for a new event.
type EventCreate struct {
	Title                string
	StartTime            time.Time
	EndTime              time.Time
	CalendarName         string
	Location             string
	Notes                string
	URL                  string
	AllDay               bool
	AlarmsMinutesOffsets []int
	RecurrenceRule       *RecurrenceRule
}

func (c *EventCreate) Validate() error {
	if c.Title == "" {
		return &ValidationError{Field: "title", Message: "must be provided"}
	}
	if c.StartTime.IsZero() {
		return &ValidationError{Field: "start_time", Message: "must be provided"}
	}
	if c.RecurrenceRule != nil {
		if err := c.RecurrenceRule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EventUpdate is a partial update: nil means "leave unchanged", never "clear".
type EventUpdate struct {
	Title                *string
	StartTime            *time.Time
	EndTime              *time.Time
	CalendarName         *string
	Location             *string
	Notes                *string
	URL                  *string
	AllDay               *bool
	AlarmsMinutesOffsets []int
	RecurrenceRule       *RecurrenceRule
}

func (u *EventUpdate) Empty() bool {
	return u.Title == nil &&
		u.StartTime == nil &&
		u.EndTime == nil &&
		u.CalendarName == nil &&
		u.Location == nil &&
		u.Notes == nil &&
		u.URL == nil &&
		u.AllDay == nil &&
		u.AlarmsMinutesOffsets == nil &&
		u.RecurrenceRule == nil
}

// Apply copies the update onto a decoded event, leaving absent fields alone.
func (u *EventUpdate) Apply(e *Event) {
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.StartTime != nil {
		e.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		e.EndTime = *u.EndTime
	}
	if u.CalendarName != nil {
		e.CalendarName = *u.CalendarName
	}
	if u.Location != nil {
		e.Location = *u.Location
	}
	if u.Notes != nil {
		e.Notes = *u.Notes
	}
	if u.URL != nil {
		e.URL = *u.URL
	}
	if u.AllDay != nil {
		e.AllDay = *u.AllDay
	}
	if u.AlarmsMinutesOffsets != nil {
		e.AlarmsMinutesOffsets = u.AlarmsMinutesOffsets
	}
	if u.RecurrenceRule != nil {
		e.RecurrenceRule = u.RecurrenceRule
	}
}

// EventsFilter bounds a range listing. CalendarName narrows to one calendar
// when the backend distinguishes several.
type EventsFilter struct {
	From         time.Time
	To           time.Time
	CalendarName string
}
