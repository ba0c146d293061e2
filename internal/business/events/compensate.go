package events

import (
	"time"

	"github.com/calendav/assistant-backend/internal/model"
)

// The backend's range search under-reports results for short windows. When
// the requested window is exactly one calendar day, the actual query is
// widened and the results are re-filtered locally, so the caller observes the
// behavior of a correct native single-day query.
const (
	widenBefore = 15 * 24 * time.Hour
	widenAfter  = 30 * 24 * time.Hour
)

// compensationWindow returns the filter to send to the backend. The second
// return value reports whether the results need local re-filtering. Windows
// spanning more than one day pass through unmodified.
func compensationWindow(filter model.EventsFilter) (model.EventsFilter, bool) {
	if !singleDay(filter.From, filter.To) {
		return filter, false
	}

	widened := filter
	widened.From = filter.From.Add(-widenBefore)
	widened.To = filter.From.Add(widenAfter)
	return widened, true
}

// singleDay reports whether [from, to) is exactly one calendar day: a start
// at local midnight and an end exactly 24 hours later.
func singleDay(from, to time.Time) bool {
	return from.Equal(model.StartOfDay(from)) && to.Equal(from.Add(24*time.Hour))
}

// clipToWindow keeps events whose normalized start falls in [from, to),
// preserving the backend's order.
func clipToWindow(events []*model.Event, from, to time.Time) []*model.Event {
	var clipped []*model.Event
	for _, e := range events {
		if e.StartTime.Before(from) || !e.StartTime.Before(to) {
			continue
		}
		clipped = append(clipped, e)
	}
	return clipped
}
