package ics

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"

	"github.com/emersion/go-ical"

	"github.com/calendav/assistant-backend/internal/model"
)

// Reference carries what the transport layer knows about a payload's origin:
// the object path on the backend and the calendar it came from.
type Reference struct {
	Path         string
	CalendarName string
}

var triggerPattern = regexp.MustCompile(`^-PT(\d+)([HM])$`)

// DecodeBytes parses a raw iCalendar payload and decodes its first VEVENT.
func DecodeBytes(data []byte, ref Reference) (*model.Event, error) {
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, &DecodeError{Identifier: bestEffortIdentifier(nil, ref, data), Reason: err.Error()}
	}
	return DecodeObject(cal, ref)
}

// DecodeObject decodes the first VEVENT of an already parsed calendar object
// into the canonical event. Missing optional fields yield zero values, never a
// failure; the only failure mode is a payload with no VEVENT component.
func DecodeObject(cal *ical.Calendar, ref Reference) (*model.Event, error) {
	vevent := findComponent(cal.Children, ical.CompEvent)
	if vevent == nil {
		return nil, &DecodeError{
			Identifier: bestEffortIdentifier(cal, ref, nil),
			Reason:     "payload has no VEVENT component",
		}
	}

	event := &model.Event{
		Title:        model.DefaultTitle,
		CalendarName: ref.CalendarName,
	}

	if v := propValue(vevent, ical.PropSummary); v != "" {
		event.Title = v
	}
	event.Location = propValue(vevent, ical.PropLocation)
	event.Notes = propValue(vevent, ical.PropDescription)
	event.URL = propValue(vevent, ical.PropURL)

	if prop := vevent.Props.Get(ical.PropDateTimeStart); prop != nil {
		event.AllDay = dateOnlyProp(prop)
		if t, err := model.ParseTimestamp(prop.Value); err == nil {
			event.StartTime = t
		}
	}
	if prop := vevent.Props.Get(ical.PropDateTimeEnd); prop != nil {
		if t, err := model.ParseTimestamp(prop.Value); err == nil {
			event.EndTime = t
		}
	}
	if prop := vevent.Props.Get(ical.PropLastModified); prop != nil {
		if t, err := model.ParseTimestamp(prop.Value); err == nil {
			event.LastModified = &t
		}
	}

	event.AlarmsMinutesOffsets = decodeAlarms(vevent)

	if prop := vevent.Props.Get(ical.PropRecurrenceRule); prop != nil && prop.Value != "" {
		rule, err := model.ParseRecurrenceRule(prop.Value)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", bestEffortIdentifier(cal, ref, nil), err)
		}
		event.RecurrenceRule = rule
	}

	if prop := vevent.Props.Get(ical.PropOrganizer); prop != nil {
		event.Organizer = strings.TrimPrefix(prop.Value, "mailto:")
	}
	for _, prop := range vevent.Props[ical.PropAttendee] {
		if cn := paramValue(&prop, ical.ParamCommonName); cn != "" {
			event.Attendees = append(event.Attendees, cn)
		} else if prop.Value != "" {
			event.Attendees = append(event.Attendees, strings.TrimPrefix(prop.Value, "mailto:"))
		}
	}

	event.Identifier = extractIdentifier(vevent, cal, ref)

	return event, nil
}

// decodeAlarms turns VALARM triggers of the form -PT<N><H|M> into
// minutes-before-start offsets. Any other trigger shape (absolute triggers,
// day-based like -P1D) is silently dropped.
func decodeAlarms(vevent *ical.Component) []int {
	var offsets []int
	for _, child := range vevent.Children {
		if child.Name != ical.CompAlarm {
			continue
		}
		prop := child.Props.Get(ical.PropTrigger)
		if prop == nil {
			continue
		}
		m := triggerPattern.FindStringSubmatch(strings.TrimSpace(prop.Value))
		if m == nil {
			continue
		}
		amount, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if m[2] == "H" {
			amount *= 60
		}
		offsets = append(offsets, amount)
	}
	return offsets
}

// extractIdentifier picks the identifier in priority order: the backend's UID,
// then the object path, then a content hash of the payload. Only the first is
// stable across re-fetches.
func extractIdentifier(vevent *ical.Component, cal *ical.Calendar, ref Reference) model.Identifier {
	if prop := vevent.Props.Get(ical.PropUID); prop != nil && prop.Value != "" {
		return model.Identifier{Value: prop.Value, Source: model.IdentifierBackend}
	}
	if ref.Path != "" {
		return model.Identifier{Value: ref.Path, Source: model.IdentifierReference}
	}
	return model.Identifier{Value: contentHash(cal, nil), Source: model.IdentifierDerived}
}

func bestEffortIdentifier(cal *ical.Calendar, ref Reference, raw []byte) string {
	if cal != nil {
		if vevent := findComponent(cal.Children, ical.CompEvent); vevent != nil {
			if prop := vevent.Props.Get(ical.PropUID); prop != nil && prop.Value != "" {
				return prop.Value
			}
		}
	}
	if ref.Path != "" {
		return ref.Path
	}
	return contentHash(cal, raw)
}

func contentHash(cal *ical.Calendar, raw []byte) string {
	if raw == nil && cal != nil {
		var buf bytes.Buffer
		if err := ical.NewEncoder(&buf).Encode(cal); err == nil {
			raw = buf.Bytes()
		}
	}
	h := fnv.New64a()
	h.Write(raw)
	return "derived-" + strconv.FormatUint(h.Sum64(), 16)
}

func findComponent(children []*ical.Component, name string) *ical.Component {
	for _, child := range children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

func propValue(comp *ical.Component, name string) string {
	if prop := comp.Props.Get(name); prop != nil {
		return prop.Value
	}
	return ""
}

func paramValue(prop *ical.Prop, name string) string {
	if values := prop.Params[name]; len(values) != 0 {
		return values[0]
	}
	return ""
}

func dateOnlyProp(prop *ical.Prop) bool {
	if v := paramValue(prop, ical.ParamValue); strings.EqualFold(v, "DATE") {
		return true
	}
	return model.DateOnly(prop.Value)
}
