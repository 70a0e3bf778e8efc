package events

import "time"

// Kind identifies an event type, namespaced as "group.name".
type Kind string

// Event is the contract every session event satisfies. Concrete events
// embed [Base] and add their payload fields.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and creation time common to all events.
type Base struct {
	kind      Kind
	timestamp time.Time
}

// NewBase stamps a new event base with the current time.
func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
