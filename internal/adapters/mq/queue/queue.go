// Package queue provides the bounded in-memory queue that hands render jobs
// to the chart workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/cfbtv/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 64
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item to the queue without waiting.
	// It fails with ErrFull when no slot is free and ErrClosed after Close.
	Enqueue(ctx context.Context, item T) error

	// Dequeue returns the channel items are delivered on.
	// The channel is closed once the queue is closed and drained.
	Dequeue() <-chan T

	// Len returns the current number of queued items.
	Len() int

	// Cap returns the queue capacity.
	Cap() int

	// Close stops accepting items. Items already queued are still delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items  chan T
	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	o := options{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	q := &InMemoryQueue[T]{items: make(chan T, o.capacity)}

	metrics.UpdateRenderQueueCapacity(o.capacity)
	metrics.UpdateRenderQueueSize(0)

	return q
}

// Enqueue adds an item to the queue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordRenderQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordRenderQueueRejected("context_cancelled")
		return err
	}

	select {
	case q.items <- item:
		metrics.UpdateRenderQueueSize(len(q.items))
		return nil
	default:
		metrics.RecordRenderQueueRejected("full")
		return ErrFull
	}
}

// Dequeue returns the channel items are delivered on.
func (q *InMemoryQueue[T]) Dequeue() <-chan T {
	return q.items
}

// Len returns the current number of queued items.
func (q *InMemoryQueue[T]) Len() int {
	size := len(q.items)
	metrics.UpdateRenderQueueSize(size)
	return size
}

// Cap returns the queue capacity.
func (q *InMemoryQueue[T]) Cap() int {
	return cap(q.items)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	// Close the channel to signal consumers to stop once drained
	close(q.items)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
