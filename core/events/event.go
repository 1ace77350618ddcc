package events

import "brickmarket/core/types"

// Event is one state change announced by a protocol engine, such as a
// settled purchase or a resolved escrow.
type Event interface {
	EventType() string
}

// Emitter receives every event an engine announces. Engines keep emitting
// regardless of who listens; the node decides whether that is a log
// subscriber, an indexer, or nothing.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards everything. Engines start with it so emission never
// needs a nil check.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}

// StateEvent wraps a typed state change in the Event interface. Engines
// build a types.Event carrying its attribute map and hand it to their
// emitter through this adapter.
type StateEvent struct {
	Evt *types.Event
}

// EventType implements the Event interface.
func (e StateEvent) EventType() string {
	if e.Evt == nil {
		return ""
	}
	return e.Evt.Type
}

// Event returns the underlying structured event.
func (e StateEvent) Event() *types.Event { return e.Evt }
