package events

import "github.com/calendav/assistant-backend/internal/database"

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

var baseQuery = database.PSQL.
	Select("id",
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
	From(database.EventsTable)
