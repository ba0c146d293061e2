package events

import (
	"fmt"
	"strconv"
	"time"

	"github.com/calendav/assistant-backend/internal/model"
)

type eventDTO struct {
	ID             int64
	Title          string
	Notes          string
	Location       string
	URL            string `db:"url"`
	CalendarName   string
	AllDay         bool
	StartTime      time.Time
	EndTime        time.Time
	Alarms         []int64
	Organizer      string
	Attendees      []string
	RecurrenceRule string
	LastModified   *time.Time
}

func mapToEvent(dto *eventDTO) (*model.Event, error) {
	alarms := make([]int, len(dto.Alarms))
	for i, a := range dto.Alarms {
		alarms[i] = int(a)
	}

	var rule *model.RecurrenceRule
	if dto.RecurrenceRule != "" {
		parsed, err := model.ParseRecurrenceRule(dto.RecurrenceRule)
		if err != nil {
			return nil, fmt.Errorf("parse recurrence rule %q: %w", dto.RecurrenceRule, err)
		}
		rule = parsed
	}

	return &model.Event{
		Identifier: model.Identifier{
			Value:  strconv.FormatInt(dto.ID, 10),
			Source: model.IdentifierBackend,
		},
		Title:                dto.Title,
		StartTime:            dto.StartTime,
		EndTime:              dto.EndTime,
		CalendarName:         dto.CalendarName,
		Location:             dto.Location,
		Notes:                dto.Notes,
		URL:                  dto.URL,
		AllDay:               dto.AllDay,
		AlarmsMinutesOffsets: alarms,
		Organizer:            dto.Organizer,
		Attendees:            dto.Attendees,
		LastModified:         dto.LastModified,
		RecurrenceRule:       rule,
	}, nil
}
