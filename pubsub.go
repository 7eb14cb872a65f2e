// Package pubsub constructors and configuration.
//
// Public API Stability:
//
// This package follows semantic versioning. The public API (types,
// interfaces, errors) is considered stable and will not change in
// backwards-incompatible ways without a major version bump. Internal
// implementation can evolve freely.
package pubsub

import (
	"log/slog"

	"github.com/visiona/pubsub/internal/bus"
)

// Option configures a bus at construction time. Configuration is immutable
// for the bus lifetime.
type Option func(*bus.Config)

// WithQueueCapacity bounds each subscriber's delivery queue. Default 100.
// If you intend to publish bursts larger than a subscriber can drain,
// raise this or the overflow policy will fire.
func WithQueueCapacity(n int) Option {
	return func(c *bus.Config) { c.QueueCapacity = n }
}

// WithSequenceWraparound bounds channel sequence ids: ids advance as
// (prev+1) mod n. Default 2^31.
func WithSequenceWraparound(n uint64) Option {
	return func(c *bus.Config) { c.SequenceWraparound = n }
}

// WithoutSequenceIDs pins every message id to 0 instead of numbering
// publish events.
func WithoutSequenceIDs() Option {
	return func(c *bus.Config) { c.AssignSequenceIDs = false }
}

// WithOverflowPolicy selects the queue-full behavior.
// Default CloseOnOverflow.
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(c *bus.Config) { c.Overflow = p }
}

// WithOverflowHandler registers a callback invoked on every overflow event
// with the channel name and the affected subscription id. Called from the
// publishing goroutine; must not block.
func WithOverflowHandler(fn func(channel, subscriptionID string)) Option {
	return func(c *bus.Config) { c.OnOverflow = fn }
}

// WithLogger sets the structured logger used for overflow warnings and
// lifecycle events. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *bus.Config) { c.Logger = l }
}

// New creates a FIFO bus: each subscriber receives messages in publish
// order. Priorities passed to PublishWithPriority are validated but do not
// affect ordering.
func New(opts ...Option) Bus {
	return newBus(false, opts)
}

// NewPriority creates a priority bus: each subscriber's queue delivers
// pending messages ordered by (priority, publish order) ascending. Publish
// uses DefaultPriority.
func NewPriority(opts ...Option) Bus {
	return newBus(true, opts)
}

func newBus(priorityOrdering bool, opts []Option) Bus {
	cfg := bus.DefaultConfig()
	cfg.PriorityOrdering = priorityOrdering
	for _, opt := range opts {
		opt(&cfg)
	}
	return bus.New(cfg)
}
