package intent

import "time"

// Actions the language model may return. Anything else is handled as a
// general query.
const (
	ActionCreateEvent = "create_event"
	ActionListEvents  = "list_events"
	ActionUpdateEvent = "update_event"
	ActionDeleteEvent = "delete_event"
	ActionQuery       = "query"
	ActionError       = "error"
)

// Params is the loosely-typed parameter payload of a parsed command. The
// model is never fully trusted: every field is an optional string, empty
// meaning absent, and the resolver re-validates everything it uses.
type Params struct {
	Title        string `json:"title,omitempty"`
	SearchTitle  string `json:"search_title,omitempty"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Location     string `json:"location,omitempty"`
	Description  string `json:"description,omitempty"`
	CalendarName string `json:"calendar_name,omitempty"`
	EventID      string `json:"event_id,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	SearchDate   string `json:"search_date,omitempty"`
}

// Command is the structured result of parsing one natural-language request.
type Command struct {
	Action      string  `json:"action"`
	Params      Params  `json:"params"`
	Confidence  float64 `json:"confidence,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Message is one turn of the model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context is the optional situational information sent along with the user
// text so the model can resolve relative dates and calendar names.
type Context struct {
	CurrentTime  time.Time
	Calendars    []string
	RecentEvents []string
	History      []Message
}
