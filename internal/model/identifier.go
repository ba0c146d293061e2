package model

// IdentifierSource records how an event identifier was obtained. Only backend
// identifiers are stable across re-fetches; a derived identifier is a content
// hash of the raw payload and callers should warn before acting on one.
type IdentifierSource int

const (
	// IdentifierBackend is the backend's own stable id (UID, row id, API id).
	IdentifierBackend IdentifierSource = iota
	// IdentifierReference is a location reference such as an object path or URL.
	IdentifierReference
	// IdentifierDerived is a hash of the raw payload, the last-resort fallback.
	IdentifierDerived
)

type Identifier struct {
	Value  string
	Source IdentifierSource
}

func (id Identifier) Stable() bool {
	return id.Source != IdentifierDerived
}

func (id Identifier) String() string {
	return id.Value
}
