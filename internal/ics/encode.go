package ics

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/emersion/go-ical"

	"github.com/calendav/assistant-backend/internal/model"
)

const productID = "-//calendav//assistant-backend//EN"

const (
	dateTimeLayout = "20060102T150405"
	dateLayout     = "20060102"
)

// EncodeCreate builds the wire payload for a new event. Fields absent from the
// request are omitted entirely rather than emitted empty, so a later partial
// update never clears them by accident.
func EncodeCreate(req *model.EventCreate, uid string) (*ical.Calendar, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	vevent := ical.NewComponent(ical.CompEvent)
	vevent.Props.SetText(ical.PropUID, uid)
	setDateTime(vevent, ical.PropDateTimeStamp, time.Now(), false)
	vevent.Props.SetText(ical.PropSummary, req.Title)
	setDateTime(vevent, ical.PropDateTimeStart, req.StartTime, req.AllDay)
	if !req.EndTime.IsZero() {
		setDateTime(vevent, ical.PropDateTimeEnd, req.EndTime, req.AllDay)
	}
	setOptionalText(vevent, ical.PropLocation, req.Location)
	setOptionalText(vevent, ical.PropDescription, req.Notes)
	setOptionalText(vevent, ical.PropURL, req.URL)

	if req.RecurrenceRule != nil {
		rrule, err := req.RecurrenceRule.ICalString()
		if err != nil {
			return nil, err
		}
		setRaw(vevent, ical.PropRecurrenceRule, rrule)
	}

	appendAlarms(vevent, req.AlarmsMinutesOffsets)

	return wrap(vevent), nil
}

// EncodeEvent serializes a decoded event back to the wire, used by backends
// that update through a fetch-modify-put cycle.
func EncodeEvent(e *model.Event) (*ical.Calendar, error) {
	vevent := ical.NewComponent(ical.CompEvent)
	if e.Identifier.Source == model.IdentifierBackend {
		vevent.Props.SetText(ical.PropUID, e.Identifier.Value)
	}
	setDateTime(vevent, ical.PropDateTimeStamp, time.Now(), false)
	vevent.Props.SetText(ical.PropSummary, e.Title)
	if !e.StartTime.IsZero() {
		setDateTime(vevent, ical.PropDateTimeStart, e.StartTime, e.AllDay)
	}
	if !e.EndTime.IsZero() {
		setDateTime(vevent, ical.PropDateTimeEnd, e.EndTime, e.AllDay)
	}
	setOptionalText(vevent, ical.PropLocation, e.Location)
	setOptionalText(vevent, ical.PropDescription, e.Notes)
	setOptionalText(vevent, ical.PropURL, e.URL)
	setOptionalText(vevent, ical.PropOrganizer, e.Organizer)
	for _, attendee := range e.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.Params[ical.ParamCommonName] = []string{attendee}
		prop.Value = "mailto:" + attendee
		vevent.Props.Add(prop)
	}

	if e.RecurrenceRule != nil {
		rrule, err := e.RecurrenceRule.ICalString()
		if err != nil {
			return nil, err
		}
		setRaw(vevent, ical.PropRecurrenceRule, rrule)
	}

	appendAlarms(vevent, e.AlarmsMinutesOffsets)

	return wrap(vevent), nil
}

// EncodeBytes renders a calendar object to its textual form.
func EncodeBytes(cal *ical.Calendar) ([]byte, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func wrap(vevent *ical.Component) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, vevent)
	return cal
}

func setDateTime(comp *ical.Component, name string, t time.Time, dateOnly bool) {
	prop := ical.NewProp(name)
	if dateOnly {
		prop.Params[ical.ParamValue] = []string{"DATE"}
		prop.Value = t.Format(dateLayout)
	} else {
		// Floating local time: the system deliberately stays timezone-naive.
		prop.Value = t.Format(dateTimeLayout)
	}
	comp.Props.Set(prop)
}

// setRaw writes a non-text property (RECUR, DURATION) verbatim; SetText would
// tag it VALUE=TEXT and escape its semicolons.
func setRaw(comp *ical.Component, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	comp.Props.Set(prop)
}

func setOptionalText(comp *ical.Component, name, value string) {
	if value != "" {
		comp.Props.SetText(name, value)
	}
}

func appendAlarms(vevent *ical.Component, offsets []int) {
	for _, minutes := range offsets {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, "Reminder")
		setRaw(alarm, ical.PropTrigger, formatTrigger(minutes))
		vevent.Children = append(vevent.Children, alarm)
	}
}

func formatTrigger(minutes int) string {
	if minutes >= 60 && minutes%60 == 0 {
		return "-PT" + strconv.Itoa(minutes/60) + "H"
	}
	return "-PT" + strconv.Itoa(minutes) + "M"
}
