package bus

import (
	"errors"
	"log/slog"
)

// Internal errors - mapped to public errors in the pubsub package
var (
	ErrEmptyChannel       = errors.New("pubsub: empty channel name")
	ErrNilPayload         = errors.New("pubsub: nil payload")
	ErrNegativePriority   = errors.New("pubsub: negative priority")
	ErrNilSubscription    = errors.New("pubsub: nil subscription")
	ErrNoMessage          = errors.New("pubsub: no message available")
	ErrSubscriptionClosed = errors.New("pubsub: subscription closed")
	ErrBusClosed          = errors.New("pubsub: bus is closed")
)

// OverflowPolicy defines what happens when a subscriber's delivery queue
// is at capacity during a publish.
type OverflowPolicy int

const (
	// CloseOnOverflow marks the subscriber's queue closed and removes it
	// from the channel. The subscriber drains whatever is already queued,
	// then receives ErrSubscriptionClosed.
	CloseOnOverflow OverflowPolicy = iota

	// DropOnOverflow drops the message for that one subscriber and keeps
	// the subscription alive. The drop is counted in Stats and reported
	// through the logger and the optional overflow handler.
	DropOnOverflow
)

// DefaultPriority is assigned to messages published without an explicit
// priority. Lower values are delivered first on a priority bus.
const DefaultPriority = 100

const (
	defaultQueueCapacity      = 100
	defaultSequenceWraparound = 1 << 31
)

// Message is the immutable envelope delivered to subscribers.
type Message struct {
	// Payload is the value handed to Publish. Never nil.
	Payload any

	// ID numbers publish events on the message's channel. All subscribers
	// of one publish call see the same ID. Wraps around at the configured
	// bound; always 0 when sequence ids are disabled.
	ID uint64
}

// Config holds constructor-time settings. Immutable for the bus lifetime.
type Config struct {
	// QueueCapacity bounds each subscriber's delivery queue.
	QueueCapacity int

	// SequenceWraparound bounds channel sequence ids: ids advance as
	// (prev+1) mod SequenceWraparound.
	SequenceWraparound uint64

	// AssignSequenceIDs controls whether ids are assigned at all.
	// When false every message carries ID 0.
	AssignSequenceIDs bool

	// PriorityOrdering selects the priority queue variant.
	PriorityOrdering bool

	// Overflow selects the queue-full policy.
	Overflow OverflowPolicy

	// OnOverflow, if set, is invoked for every overflow event with the
	// channel name and the affected subscription id. Called from the
	// publishing goroutine; must not block.
	OnOverflow func(channel, subscriptionID string)

	Logger *slog.Logger
}

// DefaultConfig returns the configuration matching the documented defaults.
func DefaultConfig() Config {
	return Config{
		QueueCapacity:      defaultQueueCapacity,
		SequenceWraparound: defaultSequenceWraparound,
		AssignSequenceIDs:  true,
		Overflow:           CloseOnOverflow,
		Logger:             slog.Default(),
	}
}

// Bus routes published messages to per-subscriber delivery queues.
type Bus interface {
	// Subscribe registers a new delivery queue on channel and returns its
	// handle. The channel is created lazily if unknown.
	Subscribe(channel string) (*Subscription, error)

	// Unsubscribe detaches sub from channel. Detaching a subscription
	// that is already gone is a no-op, not an error.
	Unsubscribe(channel string, sub *Subscription) error

	// Publish fans payload out to every subscriber of channel using
	// DefaultPriority. Never blocks.
	Publish(channel string, payload any) error

	// PublishWithPriority fans payload out with an explicit priority.
	// Priority affects delivery order only on a priority bus.
	PublishWithPriority(channel string, payload any, priority int) error

	// Stats returns a snapshot of delivery counters.
	Stats() Stats

	// Close shuts the bus down: every delivery queue is closed and
	// further calls fail with ErrBusClosed. Idempotent.
	Close() error
}

// Stats contains global and per-subscription metrics.
type Stats struct {
	// TotalPublished is the number of successful Publish calls.
	TotalPublished uint64

	// TotalDelivered is the sum of messages enqueued across all
	// subscriber queues.
	TotalDelivered uint64

	// TotalDropped is the sum of messages lost to overflow, under either
	// policy.
	TotalDropped uint64

	// Subscriptions contains the per-subscription breakdown, keyed by
	// subscription id. Includes auto-closed subscriptions.
	Subscriptions map[string]SubscriptionStats
}

// SubscriptionStats tracks metrics for a single subscription.
type SubscriptionStats struct {
	// Channel is the channel the subscription was created on.
	Channel string

	// Delivered counts messages enqueued into this subscription's queue.
	Delivered uint64

	// Dropped counts messages lost to overflow for this subscription.
	Dropped uint64

	// Closed reports whether the queue was closed, by overflow
	// (CloseOnOverflow) or by Bus.Close.
	Closed bool
}
