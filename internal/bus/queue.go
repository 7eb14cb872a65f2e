package bus

import (
	"errors"
	"sync"
	"time"
)

// errQueueFull never escapes the broker; it triggers the overflow policy.
var errQueueFull = errors.New("pubsub: delivery queue full")

// entry is a queued message together with its ordering key.
type entry struct {
	msg      Message
	priority int

	// arrival is a per-queue push counter. It is the tie-break within a
	// priority tier and stays correct when sequence ids wrap or are
	// disabled.
	arrival uint64
}

// buffer is the ordering core of a delivery queue. Implementations are not
// thread-safe; deliveryQueue serializes access.
type buffer interface {
	add(entry)
	next() (entry, bool)
	size() int
}

// fifoBuffer delivers entries in push order.
type fifoBuffer struct {
	entries []entry
}

func (b *fifoBuffer) add(e entry) {
	b.entries = append(b.entries, e)
}

func (b *fifoBuffer) next() (entry, bool) {
	if len(b.entries) == 0 {
		return entry{}, false
	}
	e := b.entries[0]
	b.entries[0] = entry{} // release the payload reference
	b.entries = b.entries[1:]
	return e, true
}

func (b *fifoBuffer) size() int {
	return len(b.entries)
}

// deliveryQueue is a bounded, thread-safe holding area for messages awaiting
// a single subscriber. Multiple publishers may offer concurrently; one
// subscriber is expected to take.
//
// The closed flag acts as an in-band terminal marker: entries queued before
// the close remain takeable, and only once the buffer is drained does take
// report ErrSubscriptionClosed.
type deliveryQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      buffer
	capacity int
	arrivals uint64
	closed   bool
}

func newDeliveryQueue(capacity int, priorityOrdering bool) *deliveryQueue {
	q := &deliveryQueue{capacity: capacity}
	if priorityOrdering {
		q.buf = &priorityBuffer{}
	} else {
		q.buf = &fifoBuffer{}
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// offer enqueues msg without blocking. Returns ErrNoMessage never; fails
// fast with errQueueFull at capacity and ErrSubscriptionClosed after close.
func (q *deliveryQueue) offer(msg Message, priority int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrSubscriptionClosed
	}
	if q.buf.size() >= q.capacity {
		return errQueueFull
	}

	q.buf.add(entry{msg: msg, priority: priority, arrival: q.arrivals})
	q.arrivals++
	q.cond.Signal()
	return nil
}

// take removes the next message. With block=false it returns immediately;
// otherwise it waits up to timeout (forever when timeout <= 0).
//
// Errors: ErrNoMessage when nothing arrived in time,
// ErrSubscriptionClosed once the queue is closed and drained.
func (q *deliveryQueue) take(block bool, timeout time.Duration) (Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !block {
		return q.takeLocked()
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		msg, err := q.takeLocked()
		if err != ErrNoMessage {
			return msg, err
		}

		if timeout <= 0 {
			q.cond.Wait()
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Message{}, ErrNoMessage
		}
		// sync.Cond has no timed wait; a one-shot timer broadcasting the
		// cond bounds this Wait. The timer takes the lock first so its
		// broadcast cannot fire before Wait has suspended the caller.
		// Spurious wakeups just loop.
		timer := time.AfterFunc(remaining, func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			q.cond.Broadcast()
		})
		q.cond.Wait()
		timer.Stop()
	}
}

func (q *deliveryQueue) takeLocked() (Message, error) {
	if e, ok := q.buf.next(); ok {
		return e.msg, nil
	}
	if q.closed {
		return Message{}, ErrSubscriptionClosed
	}
	return Message{}, ErrNoMessage
}

// close marks the queue terminal and wakes all waiters. Already-queued
// messages remain takeable. Idempotent.
func (q *deliveryQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

func (q *deliveryQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
