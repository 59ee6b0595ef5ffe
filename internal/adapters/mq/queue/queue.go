// Package queue buffers vitals readings between the HTTP intake and
// the classification workers. The in-memory implementation is a
// bounded channel that rejects rather than blocks when full, so the
// intake can answer with backpressure.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/medreach/vitalguard/internal/domain/model"
	"github.com/medreach/vitalguard/pkg/metrics"
)

const (
	defaultCapacity   = 100000
	defaultBufferSize = 100000
)

// Event is the payload type flowing through the queue.
type Event = model.VitalsReading

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds a reading. It returns false when the queue is full
	// or closed and the reading was not accepted.
	Enqueue(ctx context.Context, e Event) bool

	// Dequeue returns a channel delivering readings as they arrive.
	// The channel is closed when the queue closes or ctx is cancelled.
	Dequeue(ctx context.Context) <-chan Event

	// Len reports the number of readings currently buffered.
	Len(ctx context.Context) int

	// Close stops the queue. Buffered readings are still delivered to
	// consumers before their channel closes.
	Close() error

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}

// InMemoryQueue is a Queue backed by a buffered channel.
type InMemoryQueue struct {
	readings   chan Event
	capacity   int
	bufferSize int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue holding up to 100000 readings
// unless configured otherwise.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultCapacity,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.readings = make(chan Event, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) bool { //nolint:gocritic // hugeParam: readings travel the channel by value
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if len(q.readings) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.readings <- e:
		metrics.RecordQueueEnqueue()
		q.publishDepth()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for r := range q.readings {
			select {
			case out <- r:
				metrics.RecordQueueDequeue()
				q.publishDepth()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.publishDepth()
	return len(q.readings)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.readings)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// publishDepth pushes the current depth and utilization gauges.
func (q *InMemoryQueue) publishDepth() {
	depth := len(q.readings)
	metrics.UpdateQueueSize(depth)
	metrics.UpdateQueueUtilization(float64(depth) / float64(q.capacity))
}
