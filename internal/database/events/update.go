package events

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/calendav/assistant-backend/internal/database"
	"github.com/calendav/assistant-backend/internal/model"
)

func (*Repository) UpdateEvent(ctx context.Context, q database.Queryable, id int64, event *model.Event, now time.Time) error {
	alarms := make([]int64, len(event.AlarmsMinutesOffsets))
	for i, a := range event.AlarmsMinutesOffsets {
		alarms[i] = int64(a)
	}

	var rule string
	if event.RecurrenceRule != nil {
		s, err := event.RecurrenceRule.ICalString()
		if err != nil {
			return err
		}
		rule = s
	}

	attendees := event.Attendees
	if attendees == nil {
		attendees = []string{}
	}

	qb := database.PSQL.
		Update(database.EventsTable).
		SetMap(map[string]interface{}{
			"title":           event.Title,
			"notes":           event.Notes,
			"location":        event.Location,
			"url":             event.URL,
			"calendar_name":   event.CalendarName,
			"all_day":         event.AllDay,
			"start_time":      event.StartTime,
			"end_time":        event.EndTime,
			"alarms":          alarms,
			"organizer":       event.Organizer,
			"attendees":       attendees,
			"recurrence_rule": rule,
			"last_modified":   now,
		}).
		Where(sq.Eq{"id": id})

	tag, err := q.Exec(ctx, qb)
	if err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNoRecord
	}

	return nil
}
