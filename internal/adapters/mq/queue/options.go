// Package queue buffers landmark frames between ingestion and scoring.
package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of buffered frames.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithDropOldest selects the overflow policy. When true (the default) a full
// queue discards its oldest frame to make room; when false Enqueue rejects
// the new frame instead.
func WithDropOldest(dropOldest bool) Option {
	return func(q *InMemoryQueue) {
		q.dropOldest = dropOldest
	}
}
