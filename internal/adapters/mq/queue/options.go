package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of buffered events. Non-blocking
// enqueues fail once it is reached.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithoutMetrics keeps the queue off the inbox gauges and counters. Queues
// other than the terminal inbox use it.
func WithoutMetrics() Option {
	return func(q *InMemoryQueue) {
		q.instrumented = false
	}
}
