// Package queue is the terminal inbox: every input, outcome and command
// reaches the engine loop through it, in arrival order.
package queue

import (
	"context"
	"sync"

	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/metrics"
)

const defaultQueueCapacity = 256

// Event is the payload type flowing through the queue.
type Event = model.Event

// Queue provides non-blocking and blocking enqueue with channel-based dequeue.
type Queue interface {
	// Enqueue adds an event without blocking. It returns false if the queue
	// is full or closed. Input channels use it so a stalled loop never
	// blocks a device.
	Enqueue(ctx context.Context, e Event) bool
	// Put adds an event, waiting for room. Commands and outcomes use it
	// since they must not be dropped.
	Put(ctx context.Context, e Event) error
	// Dequeue returns a channel that receives events until the queue closes.
	Dequeue(ctx context.Context) <-chan Event
	// Len returns the current number of queued events.
	Len(ctx context.Context) int
	// Close stops accepting events and closes the dequeue channel.
	Close() error
	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events       chan Event
	done         chan struct{}
	capacity     int
	instrumented bool

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:     defaultQueueCapacity,
		instrumented: true,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Event, q.capacity)

	if q.instrumented {
		metrics.UpdateQueueCapacity(q.capacity)
		metrics.UpdateQueueSize(0)
	}
	return q
}

// Enqueue adds an event to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) bool { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.rejected("closed")
		return false
	}

	select {
	case q.events <- e:
		q.enqueued()
		return true
	case <-ctx.Done():
		q.rejected("context_cancelled")
		return false
	default:
		q.rejected("queue_full")
		return false
	}
}

// Put adds an event, blocking until there is room, ctx ends or the queue
// closes.
func (q *InMemoryQueue) Put(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	select {
	case q.events <- e:
		q.enqueued()
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		if q.instrumented {
			metrics.RecordErrorByComponent("queue", "context_cancelled")
		}
		return ctx.Err()
	}
}

// Dequeue returns a channel that will receive events as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for event := range q.events {
			select {
			case out <- event:
				if q.instrumented {
					metrics.RecordQueueDequeue()
					metrics.UpdateQueueSize(len(q.events))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued events.
func (q *InMemoryQueue) Len(context.Context) int {
	size := len(q.events)
	if q.instrumented {
		metrics.UpdateQueueSize(size)
	}
	return size
}

// Close gracefully shuts down the queue. Blocked Put calls return ErrClosed.
func (q *InMemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) enqueued() {
	if !q.instrumented {
		return
	}
	metrics.RecordQueueEnqueue()
	metrics.UpdateQueueSize(len(q.events))
}

func (q *InMemoryQueue) rejected(reason string) {
	if !q.instrumented {
		return
	}
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}
