package console

import (
	"sync"

	"node.town/vaani/pipeline"
)

// EventBus keeps the most recent pipeline events so that a reconnecting
// page can catch up from the last sequence number it saw.
type EventBus struct {
	mu        sync.Mutex
	maxEvents int
	events    []pipeline.Event
	changed   chan struct{}
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 200
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]pipeline.Event, 0, maxEvents),
		changed:   make(chan struct{}),
	}
}

// Publish appends one event and wakes every waiting reader.
func (b *EventBus) Publish(event pipeline.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]pipeline.Event(nil), b.events[trim:]...)
	}

	close(b.changed)
	b.changed = make(chan struct{})
}

// Since returns events with sequence strictly greater than seq, and a
// channel that is closed on the next Publish.
func (b *EventBus) Since(seq uint64) ([]pipeline.Event, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []pipeline.Event
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out, b.changed
}
