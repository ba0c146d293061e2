package ics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/calendav/assistant-backend/internal/model"
)

func payload(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestDecodeBytes(t *testing.T) {
	data := payload(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:abc-123",
		"DTSTAMP:20251101T000000",
		"SUMMARY:Team Sync",
		"DTSTART:20251118T090000",
		"DTEND:20251118T100000",
		"LOCATION:Room 4",
		"DESCRIPTION:weekly check-in",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"TRIGGER:-PT15M",
		"END:VALARM",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"TRIGGER:-PT2H",
		"END:VALARM",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"TRIGGER:-P1D",
		"END:VALARM",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	event, err := DecodeBytes(data, Reference{Path: "/cal/abc-123.ics", CalendarName: "Work"})
	if err != nil {
		t.Fatalf("DecodeBytes returned error: %v", err)
	}

	if event.Title != "Team Sync" {
		t.Errorf("Title = %q, want %q", event.Title, "Team Sync")
	}
	if event.CalendarName != "Work" {
		t.Errorf("CalendarName = %q, want %q", event.CalendarName, "Work")
	}
	if event.Location != "Room 4" {
		t.Errorf("Location = %q, want %q", event.Location, "Room 4")
	}
	if event.Notes != "weekly check-in" {
		t.Errorf("Notes = %q, want %q", event.Notes, "weekly check-in")
	}

	wantStart := time.Date(2025, 11, 18, 9, 0, 0, 0, time.Local)
	if !event.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want %v", event.StartTime, wantStart)
	}
	if event.AllDay {
		t.Error("AllDay = true for a timed event")
	}

	// -PT15M and -PT2H convert to minutes; the day-based -P1D is dropped.
	wantAlarms := []int{15, 120}
	if len(event.AlarmsMinutesOffsets) != len(wantAlarms) {
		t.Fatalf("alarms = %v, want %v", event.AlarmsMinutesOffsets, wantAlarms)
	}
	for i, offset := range wantAlarms {
		if event.AlarmsMinutesOffsets[i] != offset {
			t.Errorf("alarms[%d] = %d, want %d", i, event.AlarmsMinutesOffsets[i], offset)
		}
	}

	if event.Identifier.Value != "abc-123" || event.Identifier.Source != model.IdentifierBackend {
		t.Errorf("Identifier = %+v, want backend abc-123", event.Identifier)
	}
	if !event.Identifier.Stable() {
		t.Error("backend identifier should be stable")
	}
}

func TestDecodeBytesAllDay(t *testing.T) {
	data := payload(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:holiday-1",
		"SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20251118",
		"DTEND;VALUE=DATE:20251119",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	event, err := DecodeBytes(data, Reference{})
	if err != nil {
		t.Fatalf("DecodeBytes returned error: %v", err)
	}

	if !event.AllDay {
		t.Error("AllDay = false, want true")
	}
	wantStart := time.Date(2025, 11, 18, 0, 0, 0, 0, time.Local)
	if !event.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want %v", event.StartTime, wantStart)
	}
}

func TestDecodeBytesDefaultsTitle(t *testing.T) {
	data := payload(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:x",
		"DTSTART:20251118T090000",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	event, err := DecodeBytes(data, Reference{})
	if err != nil {
		t.Fatalf("DecodeBytes returned error: %v", err)
	}
	if event.Title != model.DefaultTitle {
		t.Errorf("Title = %q, want %q", event.Title, model.DefaultTitle)
	}
}

func TestDecodeBytesNoEvent(t *testing.T) {
	data := payload(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"END:VCALENDAR",
	)

	_, err := DecodeBytes(data, Reference{Path: "/cal/empty.ics"})

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if decodeErr.Identifier != "/cal/empty.ics" {
		t.Errorf("DecodeError.Identifier = %q, want path fallback", decodeErr.Identifier)
	}
}

func TestIdentifierPriority(t *testing.T) {
	event := func(uid string, refPath string) *model.Event {
		lines := []string{
			"BEGIN:VCALENDAR",
			"VERSION:2.0",
			"PRODID:-//test//EN",
			"BEGIN:VEVENT",
			"SUMMARY:x",
			"DTSTART:20251118T090000",
		}
		if uid != "" {
			lines = append(lines, "UID:"+uid)
		}
		lines = append(lines, "END:VEVENT", "END:VCALENDAR")

		e, err := DecodeBytes(payload(lines...), Reference{Path: refPath})
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return e
	}

	if e := event("uid-1", "/cal/x.ics"); e.Identifier.Source != model.IdentifierBackend {
		t.Errorf("with UID: source = %v, want backend", e.Identifier.Source)
	}

	e := event("", "/cal/x.ics")
	if e.Identifier.Source != model.IdentifierReference || e.Identifier.Value != "/cal/x.ics" {
		t.Errorf("without UID: identifier = %+v, want reference path", e.Identifier)
	}
	if !e.Identifier.Stable() {
		t.Error("reference identifier should be stable")
	}

	e = event("", "")
	if e.Identifier.Source != model.IdentifierDerived {
		t.Errorf("without UID or path: source = %v, want derived", e.Identifier.Source)
	}
	if !strings.HasPrefix(e.Identifier.Value, "derived-") {
		t.Errorf("derived identifier = %q, want derived- prefix", e.Identifier.Value)
	}
	if e.Identifier.Stable() {
		t.Error("derived identifier must not be stable")
	}
}

func TestEncodeCreateRoundTrip(t *testing.T) {
	rule, err := model.ParseRecurrenceRule("FREQ=WEEKLY;BYDAY=MO")
	if err != nil {
		t.Fatalf("parse rule: %v", err)
	}

	req := &model.EventCreate{
		Title:                "Standup",
		StartTime:            time.Date(2025, 11, 18, 9, 0, 0, 0, time.Local),
		EndTime:              time.Date(2025, 11, 18, 9, 30, 0, 0, time.Local),
		Location:             "Zoom",
		AlarmsMinutesOffsets: []int{30, 120},
		RecurrenceRule:       rule,
	}

	cal, err := EncodeCreate(req, "new-uid")
	if err != nil {
		t.Fatalf("EncodeCreate returned error: %v", err)
	}

	raw, err := EncodeBytes(cal)
	if err != nil {
		t.Fatalf("EncodeBytes returned error: %v", err)
	}
	text := string(raw)

	// Times stay floating local: no zone suffix on DTSTART.
	if !strings.Contains(text, "DTSTART:20251118T090000") {
		t.Errorf("payload missing floating DTSTART:\n%s", text)
	}
	if !strings.Contains(text, "TRIGGER:-PT30M") || !strings.Contains(text, "TRIGGER:-PT2H") {
		t.Errorf("payload missing expected triggers:\n%s", text)
	}

	decoded, err := DecodeBytes(raw, Reference{})
	if err != nil {
		t.Fatalf("decode round trip: %v", err)
	}

	if decoded.Title != req.Title {
		t.Errorf("Title = %q, want %q", decoded.Title, req.Title)
	}
	if !decoded.StartTime.Equal(req.StartTime) {
		t.Errorf("StartTime = %v, want %v", decoded.StartTime, req.StartTime)
	}
	if decoded.Identifier.Value != "new-uid" {
		t.Errorf("Identifier = %q, want new-uid", decoded.Identifier.Value)
	}
	if decoded.RecurrenceRule == nil || decoded.RecurrenceRule.Frequency != model.FrequencyWeekly {
		t.Errorf("RecurrenceRule = %+v, want weekly", decoded.RecurrenceRule)
	}
	if len(decoded.AlarmsMinutesOffsets) != 2 || decoded.AlarmsMinutesOffsets[0] != 30 || decoded.AlarmsMinutesOffsets[1] != 120 {
		t.Errorf("alarms = %v, want [30 120]", decoded.AlarmsMinutesOffsets)
	}
}

func TestEncodeCreateOmitsEmptyFields(t *testing.T) {
	req := &model.EventCreate{
		Title:     "Bare",
		StartTime: time.Date(2025, 11, 18, 9, 0, 0, 0, time.Local),
	}

	cal, err := EncodeCreate(req, "bare-uid")
	if err != nil {
		t.Fatalf("EncodeCreate returned error: %v", err)
	}
	raw, err := EncodeBytes(cal)
	if err != nil {
		t.Fatalf("EncodeBytes returned error: %v", err)
	}

	for _, prop := range []string{"LOCATION", "DESCRIPTION", "URL", "RRULE", "VALARM"} {
		if strings.Contains(string(raw), prop) {
			t.Errorf("payload contains %s for an empty field:\n%s", prop, raw)
		}
	}
}

func TestFormatTrigger(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{15, "-PT15M"},
		{60, "-PT1H"},
		{90, "-PT90M"},
		{120, "-PT2H"},
	}

	for _, tt := range tests {
		if got := formatTrigger(tt.minutes); got != tt.want {
			t.Errorf("formatTrigger(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}
