package events

import "horizon/core/types"

// Event represents a structured state change emitted by a native engine.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Collector buffers emitted events so a caller can publish them after a state
// transaction commits. Events collected during a rolled-back transaction are
// discarded via Reset.
type Collector struct {
	events []*types.Event
}

// Emit implements the Emitter interface.
func (c *Collector) Emit(evt Event) {
	if c == nil || evt == nil {
		return
	}
	if typed, ok := evt.(interface{ Event() *types.Event }); ok {
		if payload := typed.Event(); payload != nil {
			c.events = append(c.events, payload)
		}
		return
	}
	c.events = append(c.events, &types.Event{Type: evt.EventType()})
}

// Drain returns the buffered events and clears the collector.
func (c *Collector) Drain() []*types.Event {
	if c == nil {
		return nil
	}
	out := c.events
	c.events = nil
	return out
}

// Reset discards any buffered events.
func (c *Collector) Reset() {
	if c != nil {
		c.events = nil
	}
}
