package gcal

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/calendav/assistant-backend/internal/model"
)

const dateLayout = "2006-01-02"

func decodeEvent(item *calendar.Event, calendarName string) (*model.Event, error) {
	start, allDay, err := decodeTime(item.Start)
	if err != nil {
		return nil, fmt.Errorf("event %s start: %w", item.Id, err)
	}
	end, _, err := decodeTime(item.End)
	if err != nil {
		return nil, fmt.Errorf("event %s end: %w", item.Id, err)
	}

	title := item.Summary
	if title == "" {
		title = model.DefaultTitle
	}

	event := &model.Event{
		Identifier: model.Identifier{
			Value:  item.Id,
			Source: model.IdentifierBackend,
		},
		Title:        title,
		StartTime:    start,
		EndTime:      end,
		CalendarName: calendarName,
		Location:     item.Location,
		Notes:        item.Description,
		URL:          item.HtmlLink,
		AllDay:       allDay,
	}

	if item.Reminders != nil {
		for _, override := range item.Reminders.Overrides {
			event.AlarmsMinutesOffsets = append(event.AlarmsMinutesOffsets, int(override.Minutes))
		}
	}

	if item.Organizer != nil {
		event.Organizer = item.Organizer.Email
	}
	for _, attendee := range item.Attendees {
		event.Attendees = append(event.Attendees, attendee.Email)
	}

	if item.Updated != "" {
		if updated, err := time.Parse(time.RFC3339, item.Updated); err == nil {
			local := updated.In(time.Local)
			event.LastModified = &local
		}
	}

	for _, line := range item.Recurrence {
		if !strings.HasPrefix(line, "RRULE:") {
			continue
		}
		rule, err := model.ParseRecurrenceRule(strings.TrimPrefix(line, "RRULE:"))
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", item.Id, err)
		}
		event.RecurrenceRule = rule
		break
	}

	return event, nil
}

func decodeTime(edt *calendar.EventDateTime) (time.Time, bool, error) {
	if edt == nil {
		return time.Time{}, false, fmt.Errorf("missing date")
	}

	if edt.Date != "" {
		t, err := time.ParseInLocation(dateLayout, edt.Date, time.Local)
		return t, true, err
	}

	t, err := time.Parse(time.RFC3339, edt.DateTime)
	if err != nil {
		return time.Time{}, false, err
	}

	return t.In(time.Local), false, nil
}

func encodeTime(t time.Time, allDay bool) *calendar.EventDateTime {
	if allDay {
		return &calendar.EventDateTime{Date: t.Format(dateLayout)}
	}
	return &calendar.EventDateTime{DateTime: t.In(time.Local).Format(time.RFC3339)}
}

func encodeReminders(minutes []int) *calendar.EventReminders {
	if len(minutes) == 0 {
		return &calendar.EventReminders{UseDefault: true, ForceSendFields: []string{"UseDefault"}}
	}

	overrides := make([]*calendar.EventReminder, len(minutes))
	for i, m := range minutes {
		overrides[i] = &calendar.EventReminder{Method: "popup", Minutes: int64(m)}
	}

	return &calendar.EventReminders{UseDefault: false, Overrides: overrides, ForceSendFields: []string{"UseDefault"}}
}
