package delivery

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node is a single element of the queue's linked list
type node[T any] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// Queue is a lock-free multi-producer single-consumer completion queue.
// Producers append to a linked list with atomic operations, a dedicated
// consumer goroutine forwards items to the output channel.
type Queue[T any] struct {
	head atomic.Pointer[node[T]]
	tail atomic.Pointer[node[T]]

	out      chan *T
	consumer sync.WaitGroup
	closed   atomic.Bool

	// Condition variable so the consumer can sleep while the queue is empty
	mu   sync.Mutex
	cond *sync.Cond
}

// NewQueue creates a new completion queue and starts its consumer
func NewQueue[T any]() *Queue[T] {
	// Sentinel node so head/tail are never nil
	sentinel := &node[T]{}

	q := &Queue[T]{
		out: make(chan *T),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.consumer.Add(1)
	go q.consume()

	return q
}

// Push appends an item. Returns false if the queue is already closed or
// the item is nil. Safe for concurrent use by any number of goroutines.
func (q *Queue[T]) Push(value *T) bool {
	if value == nil || q.closed.Load() {
		return false
	}

	newNode := &node[T]{value: value}

	var spin uint8
	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()

		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// Appended. The tail CAS may lose to a helping producer,
				// which is fine - tail converges eventually.
				q.tail.CompareAndSwap(tailNode, newNode)
				q.wake()
				return true
			}
		} else {
			// Another producer appended but has not moved tail yet, help it
			q.tail.CompareAndSwap(tailNode, next)
		}

		// Backoff under contention: spin first, yield later
		if spin < 8 {
			spin++
			for i := 0; i < 1<<spin; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// Recv returns the receive-only channel the single consumer reads from.
// The channel is closed once the queue is closed and fully drained.
func (q *Queue[T]) Recv() <-chan *T {
	return q.out
}

// Close stops accepting new items. Items already queued are still
// delivered through Recv before the channel closes.
//
// Producers must be quiesced before Close: a Push racing Close can be
// accepted after the consumer already drained and exited, and is then
// never delivered. The dispatcher is stopped before the client closes
// this queue, which upholds the ordering.
func (q *Queue[T]) Close() {
	q.closed.Store(true)
	q.wake()
}

// wake signals the consumer under the lock so the signal cannot slip
// between the consumer's empty-check and its Wait
func (q *Queue[T]) wake() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// Drain closes the queue and hands every remaining item to fn. It must
// be called from the consuming goroutine and returns once the queue is
// empty. This is the shutdown path: nothing is discarded without it.
func (q *Queue[T]) Drain(fn func(*T)) {
	q.Close()
	for value := range q.out {
		if fn != nil {
			fn(value)
		}
	}
	q.consumer.Wait()
}

// IsClosed reports whether the queue no longer accepts items
func (q *Queue[T]) IsClosed() bool {
	return q.closed.Load()
}

// consume moves items from the linked list to the output channel
func (q *Queue[T]) consume() {
	defer q.consumer.Done()
	defer close(q.out)

	for {
		delivered := false

		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}

			delivered = true
			value := next.value

			// Advance head so the old node can be collected
			q.head.Store(next)
			q.out <- value
			next.value = nil
		}

		if !delivered {
			if q.closed.Load() {
				return
			}

			q.mu.Lock()
			// Re-check under the lock, a producer may have signaled in between
			head := q.head.Load()
			if head.next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}
