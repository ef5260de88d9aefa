package registry

import (
	"sync"

	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

type eventKind int

const (
	eventDefaults eventKind = iota + 1
	eventValidation
)

// event is the result of async work, posted by a helper goroutine.
type event struct {
	kind eventKind

	// eventDefaults
	gen    int64
	values value.Object

	// eventValidation
	path string
	run  int64
	verr *validation.Error

	err error
}

// eventQueue is an unbounded, thread-safe FIFO of async results.
//
// Helper goroutines enqueue; the owner goroutine drains with TryDequeue and
// blocks on Wait for context-aware waiting.
type eventQueue struct {
	mu     sync.Mutex
	events []event
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]event, 0, 8),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds e to the back of the queue. It returns false once the queue
// is closed.
func (q *eventQueue) Enqueue(e event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking: a pending signal already covers this event.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return event{}, false
	}

	e := q.events[0]
	// Release the tree held by the slot.
	q.events[0] = event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that fires when events may be available. It is
// closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued events.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops further enqueues and wakes waiters.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
