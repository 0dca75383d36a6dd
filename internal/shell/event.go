package shell

import "sync/atomic"

// Event is the triggering event of a navigation. Navigating suppresses its default
// behavior.
type Event interface {
	Kind() string
	PreventDefault()
	DefaultPrevented() bool
}

// BasicEvent is an Event synthesized by the shell itself (clicks, initial load).
type BasicEvent struct {
	kind      string
	prevented atomic.Bool
}

// NewEvent returns a BasicEvent of the given kind ("click", "load").
func NewEvent(kind string) *BasicEvent {
	return &BasicEvent{kind: kind}
}

func (e *BasicEvent) Kind() string { return e.kind }

func (e *BasicEvent) PreventDefault() { e.prevented.Store(true) }

func (e *BasicEvent) DefaultPrevented() bool { return e.prevented.Load() }
