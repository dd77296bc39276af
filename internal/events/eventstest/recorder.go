// Package eventstest provides a synchronous in-memory events.Sink for tests.
package eventstest

import (
	"sync"

	"github.com/janpfeifer/chessArena/internal/events"
)

// Recorder records every event published, stamping sequence numbers like events.Hub does.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

// Assert Recorder is an events.Sink.
var _ events.Sink = (*Recorder)(nil)

// Publish implements events.Sink.
func (r *Recorder) Publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Seq = uint64(len(r.events) + 1)
	r.events = append(r.events, e)
}

// Events returns a copy of the events recorded so far.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// Types returns the types of the events recorded so far, in order.
func (r *Recorder) Types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]events.Type, len(r.events))
	for ii, e := range r.events {
		types[ii] = e.Type
	}
	return types
}

// OfType returns the recorded events of the given type.
func (r *Recorder) OfType(eventType events.Type) (selected []events.Event) {
	for _, e := range r.Events() {
		if e.Type == eventType {
			selected = append(selected, e)
		}
	}
	return
}

// Reset discards the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
