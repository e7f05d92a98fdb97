package events

import (
	"context"
	"sync"

	"subject-registry/pkg/domain"
)

// Handler receives every emitted event.
type Handler func(Event)

// Bus is the in-memory emitter: it appends events to an ordered log and
// fans them out to subscribers synchronously. Emission order equals commit
// order per subject because the registry awaits each Emit before returning.
// Tests use the log to assert event sequences.
type Bus struct {
	mu       sync.Mutex
	log      []Event
	handlers map[int]Handler
	nextID   int
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

func (b *Bus) Emit(_ context.Context, event Event) error {
	b.mu.Lock()
	b.log = append(b.log, event)
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

// Subscribe registers a handler for all subsequent events and returns an
// unsubscribe function.
func (b *Bus) Subscribe(handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Events returns a copy of the full emission log.
func (b *Bus) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event{}, b.log...)
}

// EventsFor returns the emission log filtered to one subject, in order.
func (b *Bus) EventsFor(id domain.SubjectID) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Event
	for _, e := range b.log {
		if e.SubjectID == id {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears the emission log. Test helper.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = nil
}
