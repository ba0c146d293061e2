package ics

import "fmt"

// DecodeError reports a wire payload missing its minimum structural component
// (no VEVENT body at all). Missing optional fields never produce one; the
// codec defaults those instead. Identifier is best-effort, for diagnostics.
type DecodeError struct {
	Identifier string
	Reason     string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode event %s: %s", e.Identifier, e.Reason)
}
