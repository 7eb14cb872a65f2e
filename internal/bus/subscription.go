package bus

import (
	"iter"
	"sync/atomic"
	"time"
)

// Subscription is the handle returned by Subscribe. It wraps one delivery
// queue, remembers its channel, and keeps a back-reference to the owning
// broker so it can unsubscribe itself.
//
// Identity matters: a subscriber is identified by the handle it was given,
// not by the channel name. Two subscriptions on the same channel are
// independent queues.
type Subscription struct {
	id      string
	channel string
	owner   *broker
	queue   *deliveryQueue

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// ID returns the unique subscription id used as the Stats key.
func (s *Subscription) ID() string { return s.id }

// Channel returns the channel this subscription was created on.
func (s *Subscription) Channel() string { return s.channel }

// Receive waits for the next message. A timeout <= 0 waits indefinitely.
//
// Errors: ErrNoMessage when the timeout elapses with nothing queued,
// ErrSubscriptionClosed once the queue was closed and fully drained.
func (s *Subscription) Receive(timeout time.Duration) (Message, error) {
	return s.queue.take(true, timeout)
}

// TryReceive returns the next message without blocking, or ErrNoMessage
// when the queue is empty.
func (s *Subscription) TryReceive() (Message, error) {
	return s.queue.take(false, 0)
}

// Listen returns a restartable message stream. Each pull behaves like
// Receive (block=true) or TryReceive (block=false); the stream ends when a
// pull finds nothing within the timeout. A closed queue yields a final
// (zero Message, ErrSubscriptionClosed) pair before the stream ends, so a
// range loop can tell "drained for now" from "closed for good".
//
// Ranging again later resumes from wherever the queue stands; the stream is
// a live view, not a snapshot.
func (s *Subscription) Listen(block bool, timeout time.Duration) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		for {
			msg, err := s.queue.take(block, timeout)
			switch err {
			case nil:
				if !yield(msg, nil) {
					return
				}
			case ErrNoMessage:
				return
			default:
				yield(Message{}, err)
				return
			}
		}
	}
}

// Unsubscribe detaches this subscription from its channel. Messages already
// queued remain readable. Safe to call more than once.
func (s *Subscription) Unsubscribe() error {
	return s.owner.Unsubscribe(s.channel, s)
}

// stats returns a snapshot of this subscription's counters.
func (s *Subscription) stats() SubscriptionStats {
	return SubscriptionStats{
		Channel:   s.channel,
		Delivered: s.delivered.Load(),
		Dropped:   s.dropped.Load(),
		Closed:    s.queue.isClosed(),
	}
}
