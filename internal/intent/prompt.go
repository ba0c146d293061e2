package intent

import (
	"fmt"
	"strings"
	"time"

	"github.com/calendav/assistant-backend/internal/model"
)

func systemPrompt(now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a calendar assistant that converts natural-language input into structured calendar operations.

Current time: %s
Current weekday: %s

Recognize these actions: create_event, list_events, update_event, delete_event, query.

Always answer with a single JSON object:
{
  "action": "<action>",
  "params": {
    "title": "event title (create_event, update_event, delete_event)",
    "search_title": "original title to look up (update_event)",
    "start_time": "ISO 8601 start, e.g. 2025-11-13T15:00:00",
    "end_time": "ISO 8601 end (optional)",
    "location": "optional",
    "description": "optional",
    "calendar_name": "optional",
    "event_id": "only when the user explicitly provides one",
    "start_date": "date to match or start listing from (list_events, delete_event, update_event)",
    "end_date": "date to stop listing at (list_events)",
    "search_date": "date of the event being changed (update_event)"
  },
  "confidence": 0.95,
  "explanation": "how the input was understood"
}

Time rules:
- "today" is %s, "tomorrow" is %s, "the day after tomorrow" is %s.
- Use local naive timestamps, never append a timezone offset.
- When no time of day is given, default to 09:00:00; default duration is one hour.

Deletes and updates: when the user mentions a day ("tomorrow", "today") put it
in start_date (or start_time when a clock time is given) together with the
title keyword. The system matches events by title and time range itself, so do
not invent event ids.
`,
		now.Format("2006-01-02 15:04:05"),
		now.Weekday(),
		now.Format("2006-01-02"),
		now.AddDate(0, 0, 1).Format("2006-01-02"),
		now.AddDate(0, 0, 2).Format("2006-01-02"),
	)

	return b.String()
}

func userPrompt(text string, cctx *Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Parse this calendar command:\n\nUser input: %s\n\n", text)

	if len(cctx.RecentEvents) != 0 {
		fmt.Fprintf(&b, "Recent events: %s\n", strings.Join(cctx.RecentEvents, "; "))
	}
	if len(cctx.Calendars) != 0 {
		fmt.Fprintf(&b, "Available calendars: %s\n", strings.Join(cctx.Calendars, ", "))
	}

	return b.String()
}

func summaryPrompt(events []*model.Event) string {
	var b strings.Builder

	limit := len(events)
	if limit > 10 {
		limit = 10
	}
	for _, e := range events[:limit] {
		fmt.Fprintf(&b, "- %s (%s to %s)\n",
			e.Title,
			e.StartTime.Format("2006-01-02 15:04"),
			e.EndTime.Format("2006-01-02 15:04"),
		)
	}
	fmt.Fprintf(&b, "\n%d events in total.", len(events))

	return b.String()
}
