package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Frequency int

const (
	FrequencyDaily Frequency = iota
	FrequencyWeekly
	FrequencyMonthly
	FrequencyYearly
)

var frequencyNames = map[Frequency]string{
	FrequencyDaily:   "DAILY",
	FrequencyWeekly:  "WEEKLY",
	FrequencyMonthly: "MONTHLY",
	FrequencyYearly:  "YEARLY",
}

var frequencyValues = map[string]Frequency{
	"DAILY":   FrequencyDaily,
	"WEEKLY":  FrequencyWeekly,
	"MONTHLY": FrequencyMonthly,
	"YEARLY":  FrequencyYearly,
}

func (f Frequency) String() string {
	if name, ok := frequencyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

type Weekday int

const (
	WeekdaySunday Weekday = iota + 1
	WeekdayMonday
	WeekdayTuesday
	WeekdayWednesday
	WeekdayThursday
	WeekdayFriday
	WeekdaySaturday
)

var weekdayCodes = map[Weekday]string{
	WeekdaySunday:    "SU",
	WeekdayMonday:    "MO",
	WeekdayTuesday:   "TU",
	WeekdayWednesday: "WE",
	WeekdayThursday:  "TH",
	WeekdayFriday:    "FR",
	WeekdaySaturday:  "SA",
}

var weekdayValues = map[string]Weekday{
	"SU": WeekdaySunday,
	"MO": WeekdayMonday,
	"TU": WeekdayTuesday,
	"WE": WeekdayWednesday,
	"TH": WeekdayThursday,
	"FR": WeekdayFriday,
	"SA": WeekdaySaturday,
}

func (d Weekday) String() string {
	if code, ok := weekdayCodes[d]; ok {
		return code
	}
	return fmt.Sprintf("Weekday(%d)", int(d))
}

const (
	untilDateTimeLayout = "20060102T150405Z"
	untilDateLayout     = "20060102"
)

// RecurrenceRule is the FREQ/INTERVAL/UNTIL/COUNT/BYDAY subset of an iCalendar
// RRULE. EndDate and OccurrenceCount are mutually exclusive; Validate enforces
// that at construction time, not only on serialization.
type RecurrenceRule struct {
	Frequency       Frequency
	Interval        int
	EndDate         *time.Time
	OccurrenceCount *int
	DaysOfWeek      []Weekday
}

func (r *RecurrenceRule) Validate() error {
	if r.Interval < 1 {
		return &ValidationError{Field: "interval", Message: "must be at least 1"}
	}
	if _, ok := frequencyNames[r.Frequency]; !ok {
		return &ValidationError{Field: "frequency", Message: fmt.Sprintf("unknown frequency %d", int(r.Frequency))}
	}
	if r.EndDate != nil && r.OccurrenceCount != nil {
		return &ValidationError{Field: "end_date", Message: "only one of end_date or occurrence_count can be set"}
	}
	for _, d := range r.DaysOfWeek {
		if _, ok := weekdayCodes[d]; !ok {
			return &ValidationError{Field: "days_of_week", Message: fmt.Sprintf("unknown weekday %d", int(d))}
		}
	}
	return nil
}

// ParseRecurrenceRule parses an RRULE value ("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,FR")
// into a RecurrenceRule. The parse is deliberately lenient towards data other
// producers emit: a missing or unknown FREQ falls back to DAILY, a malformed
// UNTIL is dropped (leaving the rule unbounded), unrecognized BYDAY codes are
// skipped. When both UNTIL and COUNT are present only UNTIL takes effect.
func ParseRecurrenceRule(s string) (*RecurrenceRule, error) {
	parts := map[string]string{}
	for _, part := range strings.Split(s, ";") {
		if key, value, ok := strings.Cut(part, "="); ok {
			parts[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
		}
	}

	rule := &RecurrenceRule{
		Frequency: FrequencyDaily,
		Interval:  1,
	}

	if freq, ok := frequencyValues[strings.ToUpper(parts["FREQ"])]; ok {
		rule.Frequency = freq
	}

	if v, ok := parts["INTERVAL"]; ok {
		if interval, err := strconv.Atoi(v); err == nil {
			rule.Interval = interval
		}
	}

	if v, ok := parts["UNTIL"]; ok {
		layout := untilDateLayout
		if strings.Contains(v, "T") {
			layout = untilDateTimeLayout
		}
		if until, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			rule.EndDate = &until
		}
	} else if v, ok := parts["COUNT"]; ok {
		if count, err := strconv.Atoi(v); err == nil {
			rule.OccurrenceCount = &count
		}
	}

	if v, ok := parts["BYDAY"]; ok {
		var days []Weekday
		for _, code := range strings.Split(v, ",") {
			if day, ok := weekdayValues[strings.ToUpper(strings.TrimSpace(code))]; ok {
				days = append(days, day)
			}
		}
		if len(days) != 0 {
			rule.DaysOfWeek = days
		}
	}

	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", s, err)
	}

	return rule, nil
}

// ICalString serializes the rule back to an RRULE value.
func (r *RecurrenceRule) ICalString() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	parts := []string{"FREQ=" + r.Frequency.String()}

	if r.Interval != 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(r.Interval))
	}

	switch {
	case r.EndDate != nil:
		parts = append(parts, "UNTIL="+r.EndDate.Format(untilDateTimeLayout))
	case r.OccurrenceCount != nil:
		parts = append(parts, "COUNT="+strconv.Itoa(*r.OccurrenceCount))
	}

	if len(r.DaysOfWeek) != 0 {
		codes := make([]string, len(r.DaysOfWeek))
		for i, d := range r.DaysOfWeek {
			codes[i] = d.String()
		}
		parts = append(parts, "BYDAY="+strings.Join(codes, ","))
	}

	return strings.Join(parts, ";"), nil
}

// String renders a short human readable summary used in event listings.
func (r *RecurrenceRule) String() string {
	end := "unbounded"
	switch {
	case r.EndDate != nil:
		end = "until " + r.EndDate.Format("2006-01-02")
	case r.OccurrenceCount != nil:
		end = fmt.Sprintf("%d occurrences", *r.OccurrenceCount)
	}
	return fmt.Sprintf("every %d %s (%s)", r.Interval, strings.ToLower(r.Frequency.String()), end)
}
