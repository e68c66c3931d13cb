// Package bus is the unbounded, non-blocking FIFO that carries events from
// background tasks to the single consumer that owns the receiving end.
package bus

import (
	"errors"
	"sync"

	"github.com/chiro2001/financial-frontend/internal/event"
)

// ErrClosed is returned by Send once the receiver has been closed.
var ErrClosed = errors.New("bus: receiver closed")

type queue struct {
	mu     sync.Mutex
	items  []event.Event
	closed bool
	notify chan struct{}
}

// Sender is the producing end. Copies share the queue, so handing a Sender
// to a task is how the task gets its own producer.
type Sender struct {
	q *queue
}

// Receiver is the single consuming end.
type Receiver struct {
	q *queue
}

// New creates a queue and returns both ends.
func New() (Sender, *Receiver) {
	q := &queue{notify: make(chan struct{}, 1)}
	return Sender{q: q}, &Receiver{q: q}
}

// Send appends ev to the tail of the queue. It never blocks.
func (s Sender) Send(ev event.Event) error {
	if s.q == nil {
		return ErrClosed
	}
	s.q.mu.Lock()
	if s.q.closed {
		s.q.mu.Unlock()
		return ErrClosed
	}
	s.q.items = append(s.q.items, ev)
	s.q.mu.Unlock()

	select {
	case s.q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Sender returns a producer for this receiver's queue.
func (r *Receiver) Sender() Sender {
	return Sender{q: r.q}
}

// TryReceive pops the oldest queued event, if any.
func (r *Receiver) TryReceive() (event.Event, bool) {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	if len(r.q.items) == 0 {
		return nil, false
	}
	ev := r.q.items[0]
	r.q.items[0] = nil
	r.q.items = r.q.items[1:]
	return ev, true
}

// TryReceiveAll drains every queued event in enqueue order. It returns an
// empty slice immediately when nothing is queued.
func (r *Receiver) TryReceiveAll() []event.Event {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	items := r.q.items
	r.q.items = nil
	return items
}

// Len reports how many events are waiting.
func (r *Receiver) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.items)
}

// Notify returns a channel that receives a value after one or more sends.
// Signals coalesce; a consumer must drain the queue after each wake.
func (r *Receiver) Notify() <-chan struct{} {
	return r.q.notify
}

// Close detaches the receiver. Queued events are discarded and later sends
// fail with ErrClosed.
func (r *Receiver) Close() {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	r.q.closed = true
	r.q.items = nil
}
