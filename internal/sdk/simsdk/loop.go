package simsdk

import (
	"context"
	"sync"
)

// task is a unit of work executed on the loop goroutine.
type task func()

// eventLoop is a FIFO task queue drained by a single goroutine.
//
// The queue is unbounded so handlers may enqueue follow-on events without
// blocking. The signal channel (buffer of 1) coalesces wake-ups.
type eventLoop struct {
	mu     sync.Mutex
	tasks  []task
	closed bool
	signal chan struct{}
	done   chan struct{}
}

func newEventLoop() *eventLoop {
	return &eventLoop{
		tasks:  make([]task, 0, 64),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// enqueue adds a task to the back of the queue.
// Returns false if the loop is closed.
func (q *eventLoop) enqueue(t task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, t)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// tryDequeue removes the front task without blocking.
func (q *eventLoop) tryDequeue() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}
	t := q.tasks[0]
	// Nil out the slot so the closure can be collected.
	q.tasks[0] = nil
	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}
	return t, true
}

func (q *eventLoop) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// run drains the queue until ctx is cancelled or the loop is closed and empty.
func (q *eventLoop) run(ctx context.Context) {
	defer close(q.done)
	for {
		if t, ok := q.tryDequeue(); ok {
			t()
			continue
		}

		select {
		case <-ctx.Done():
			q.close()
			return
		case _, open := <-q.signal:
			if !open && q.len() == 0 {
				return
			}
		}
	}
}

// close stops accepting tasks and wakes the loop.
func (q *eventLoop) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
