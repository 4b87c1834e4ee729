package testutil

import (
	"sync"
	"time"

	"github.com/velocitycmdb/velocitycmdb/internal/progress"
)

// EventRecorder drains a progress.Bus subscription in the background and
// makes the events it has seen so far available for assertion.
type EventRecorder struct {
	mu     sync.Mutex
	events []progress.Event
	done   chan struct{}
}

// NewEventRecorder subscribes to bus and starts recording immediately. Call
// WaitClosed once the producer side is finished to confirm the drain
// goroutine has caught up.
func NewEventRecorder(bus *progress.Bus) *EventRecorder {
	ch, unsubscribe := bus.Subscribe(256)
	r := &EventRecorder{done: make(chan struct{})}

	go func() {
		defer unsubscribe()
		for e := range ch {
			r.mu.Lock()
			r.events = append(r.events, e)
			r.mu.Unlock()
		}
		close(r.done)
	}()

	return r
}

// Events returns a copy of every event recorded so far.
func (r *EventRecorder) Events() []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]progress.Event, len(r.events))
	copy(out, r.events)
	return out
}

// WaitClosed blocks until the underlying bus has closed the subscription,
// or timeout elapses, whichever comes first. Returns false on timeout.
func (r *EventRecorder) WaitClosed(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
