package pubsub

import "github.com/visiona/pubsub/internal/bus"

// Public API - Re-export internal types as stable contract

// Message is the immutable envelope delivered to subscribers.
type Message = bus.Message

// Subscription is the per-subscriber handle: one bounded delivery queue
// plus Listen/Receive/Unsubscribe.
type Subscription = bus.Subscription

// Bus routes published messages to per-subscriber delivery queues.
type Bus = bus.Bus

// Stats contains global and per-subscription delivery metrics.
type Stats = bus.Stats

// SubscriptionStats tracks metrics for a single subscription.
type SubscriptionStats = bus.SubscriptionStats

// OverflowPolicy defines what happens when a subscriber's queue is at
// capacity during a publish.
type OverflowPolicy = bus.OverflowPolicy

const (
	// CloseOnOverflow closes and detaches the overflowing subscriber.
	CloseOnOverflow = bus.CloseOnOverflow
	// DropOnOverflow drops the message and keeps the subscriber attached.
	DropOnOverflow = bus.DropOnOverflow
)

// DefaultPriority is assigned to messages published without an explicit
// priority. Lower values are delivered first on a priority bus.
const DefaultPriority = bus.DefaultPriority

// Public API errors - Re-export internal errors as stable contract
var (
	ErrEmptyChannel       = bus.ErrEmptyChannel
	ErrNilPayload         = bus.ErrNilPayload
	ErrNegativePriority   = bus.ErrNegativePriority
	ErrNilSubscription    = bus.ErrNilSubscription
	ErrNoMessage          = bus.ErrNoMessage
	ErrSubscriptionClosed = bus.ErrSubscriptionClosed
	ErrBusClosed          = bus.ErrBusClosed
)
