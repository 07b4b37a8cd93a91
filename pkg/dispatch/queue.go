package dispatch

import (
	"context"
	"errors"
	"sync"
)

// ErrSourceClosed is returned once the event source has been closed.
var ErrSourceClosed = errors.New("event source closed")

// Source yields events one at a time, blocking until one is available.
type Source interface {
	Next(ctx context.Context) (Event, error)
}

// Queue is an unbounded FIFO of events. Post never blocks, so it is safe
// from any goroutine, including the loop itself inside a callback.
type Queue struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}
	closed bool
}

// NewQueue returns an empty open queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Post appends ev.
func (q *Queue) Post(ev Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrSourceClosed
	}
	q.events = append(q.events, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Next removes and returns the oldest event, waiting for one if the queue is
// empty. Events posted before Close are still returned.
func (q *Queue) Next(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			ev := q.events[0]
			q.events[0] = nil
			q.events = q.events[1:]
			q.mu.Unlock()
			return ev, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrSourceClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops accepting events and wakes any waiting consumer.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}
