package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var tzSuffix = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2})$`)

var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102T150405",
	"20060102",
}

// ParseTimestamp accepts the timestamp shapes seen on the wire and in intent
// payloads: ISO 8601 with or without seconds, bare dates, and the compact
// iCalendar forms. A trailing UTC marker or offset is stripped, not converted;
// the system works in naive local wall time throughout.
func ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	v = tzSuffix.ReplaceAllString(v, "")

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}

// DateOnly reports whether the value carries no time-of-day component.
func DateOnly(s string) bool {
	v := tzSuffix.ReplaceAllString(strings.TrimSpace(s), "")
	return !strings.Contains(v, "T") && !strings.Contains(v, ":")
}

// StartOfDay truncates a wall time to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
