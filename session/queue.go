package session

import (
	"sync"

	"github.com/ardnew/klisp/pkg"
)

// task is a unit of mutating work run by the session worker.
type task func()

// queue is an unbounded FIFO of tasks with a single consumer.
type queue struct {
	mu     sync.Mutex
	items  []task
	closed bool
	wake   chan struct{}
}

func newQueue() *queue {
	return &queue{wake: make(chan struct{}, 1)}
}

func (q *queue) push(t task) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return pkg.ErrSessionClosed
	}

	q.items = append(q.items, t)
	q.mu.Unlock()

	q.signal()

	return nil
}

func (q *queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// pop blocks until a task is available. It returns false once the queue is
// closed and empty.
func (q *queue) pop() (task, bool) {
	for {
		q.mu.Lock()

		if len(q.items) > 0 {
			t := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()

			return t, true
		}

		if q.closed {
			q.mu.Unlock()

			return nil, false
		}

		q.mu.Unlock()
		<-q.wake
	}
}

// close stops accepting tasks. Queued tasks are still delivered.
func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.signal()
}

func (q *queue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
