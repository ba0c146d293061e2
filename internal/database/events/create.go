package events

import (
	"context"
	"fmt"
	"time"

	"github.com/calendav/assistant-backend/internal/database"
	"github.com/calendav/assistant-backend/internal/model"
)

func (*Repository) CreateEvent(ctx context.Context, q database.Queryable, info *model.EventCreate, now time.Time) (int64, error) {
	alarms := make([]int64, len(info.AlarmsMinutesOffsets))
	for i, a := range info.AlarmsMinutesOffsets {
		alarms[i] = int64(a)
	}

	var rule string
	if info.RecurrenceRule != nil {
		s, err := info.RecurrenceRule.ICalString()
		if err != nil {
			return 0, err
		}
		rule = s
	}

	qb := database.PSQL.
		Insert(database.EventsTable).
		Columns(
			"title",
			"notes",
			"location",
			"url",
			"calendar_name",
			"all_day",
			"start_time",
			"end_time",
			"alarms",
			"organizer",
			"attendees",
			"recurrence_rule",
			"last_modified",
		).
		Values(
			info.Title,
			info.Notes,
			info.Location,
			info.URL,
			info.CalendarName,
			info.AllDay,
			info.StartTime,
			info.EndTime,
			alarms,
			"",
			[]string{},
			rule,
			now,
		).
		Suffix("returning id")

	var id int64
	if err := q.Get(ctx, &id, qb); err != nil {
		return 0, fmt.Errorf("SQL request: %w", err)
	}

	return id, nil
}
