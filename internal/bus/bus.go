package bus

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// channelState is one registry entry: the ordered subscriber list and the
// sequence counter shared by every subscriber of the channel.
//
// Its mutex is held across the fan-out loop. Offers never block, so this
// only serializes publishes on the same channel; the registry lock is never
// held across a queue operation, keeping unrelated channels independent.
type channelState struct {
	name string

	mu      sync.Mutex
	subs    []*Subscription
	nextSeq uint64
	started bool
}

// nextID advances the channel's sequence counter. The first publish on a
// channel yields 0; after that ids advance as (prev+1) mod wraparound.
// Caller holds ch.mu.
func (ch *channelState) nextID(cfg Config) uint64 {
	if !cfg.AssignSequenceIDs {
		return 0
	}
	if !ch.started {
		ch.started = true
		ch.nextSeq = 0
		return 0
	}
	ch.nextSeq = (ch.nextSeq + 1) % cfg.SequenceWraparound
	return ch.nextSeq
}

// broker is the concrete Bus implementation.
type broker struct {
	cfg Config

	mu       sync.RWMutex
	channels map[string]*channelState
	subs     map[string]*Subscription
	closed   bool

	// Global counters (atomic - no lock needed on the publish path)
	totalPublished atomic.Uint64
	totalDelivered atomic.Uint64
	totalDropped   atomic.Uint64
}

// New creates a broker from cfg, filling in documented defaults for zero
// values.
func New(cfg Config) Bus {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = defaultQueueCapacity
	}
	if cfg.SequenceWraparound == 0 {
		cfg.SequenceWraparound = defaultSequenceWraparound
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &broker{
		cfg:      cfg,
		channels: make(map[string]*channelState),
		subs:     make(map[string]*Subscription),
	}
}

// getOrCreate resolves a channel, creating its registry entry lazily.
func (b *broker) getOrCreate(name string) (*channelState, error) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, ErrBusClosed
	}
	ch, ok := b.channels[name]
	b.mu.RUnlock()
	if ok {
		return ch, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	// Need to check again: another goroutine may have created the channel
	// between the read unlock and the write lock.
	if ch, ok = b.channels[name]; !ok {
		ch = &channelState{name: name}
		b.channels[name] = ch
	}
	return ch, nil
}

// Subscribe registers a new delivery queue on channel and returns its handle.
func (b *broker) Subscribe(channel string) (*Subscription, error) {
	if channel == "" {
		return nil, ErrEmptyChannel
	}

	ch, err := b.getOrCreate(channel)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		id:      uuid.NewString(),
		channel: channel,
		owner:   b,
		queue:   newDeliveryQueue(b.cfg.QueueCapacity, b.cfg.PriorityOrdering),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	b.subs[sub.id] = sub
	b.mu.Unlock()

	ch.mu.Lock()
	ch.subs = append(ch.subs, sub)
	ch.mu.Unlock()

	b.cfg.Logger.Debug("pubsub: subscriber attached",
		"channel", channel, "subscription", sub.id)
	return sub, nil
}

// Unsubscribe detaches sub from channel's subscriber list. Detaching a
// subscription that is already gone (duplicate call, or lost to an
// overflow auto-close race) is a no-op.
func (b *broker) Unsubscribe(channel string, sub *Subscription) error {
	if channel == "" {
		return ErrEmptyChannel
	}
	if sub == nil {
		return ErrNilSubscription
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	ch, ok := b.channels[channel]
	b.mu.RUnlock()
	if !ok {
		return nil
	}

	ch.mu.Lock()
	removed := ch.remove(sub)
	ch.mu.Unlock()

	// Drop the subscription from the stats registry even when the fan-out
	// already detached it (overflow auto-close): an explicit unsubscribe is
	// the embedder acknowledging the subscription is gone.
	if removed || sub.channel == channel {
		b.mu.Lock()
		delete(b.subs, sub.id)
		b.mu.Unlock()
	}
	if removed {
		b.cfg.Logger.Debug("pubsub: subscriber detached",
			"channel", channel, "subscription", sub.id)
	}
	return nil
}

// remove drops sub from the channel's subscriber list by handle identity.
// Caller holds ch.mu. Reports whether sub was present.
func (ch *channelState) remove(sub *Subscription) bool {
	for i, s := range ch.subs {
		if s == sub {
			ch.subs = append(ch.subs[:i], ch.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish fans payload out to every current subscriber of channel.
func (b *broker) Publish(channel string, payload any) error {
	return b.PublishWithPriority(channel, payload, DefaultPriority)
}

// PublishWithPriority fans payload out with an explicit priority.
//
// The channel lock is held for the whole fan-out: every offer is
// non-blocking, so this costs microseconds and guarantees that subscribers
// of one channel see sequence ids committed in a single order.
func (b *broker) PublishWithPriority(channel string, payload any, priority int) error {
	if channel == "" {
		return ErrEmptyChannel
	}
	if payload == nil {
		return ErrNilPayload
	}
	if priority < 0 {
		return ErrNegativePriority
	}

	ch, err := b.getOrCreate(channel)
	if err != nil {
		return err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	b.totalPublished.Add(1)
	msg := Message{Payload: payload, ID: ch.nextID(b.cfg)}

	var autoClosed []*Subscription
	for _, sub := range ch.subs {
		switch sub.queue.offer(msg, priority) {
		case nil:
			sub.delivered.Add(1)
			b.totalDelivered.Add(1)

		case errQueueFull:
			sub.dropped.Add(1)
			b.totalDropped.Add(1)
			if b.cfg.Overflow == CloseOnOverflow {
				sub.queue.close()
				autoClosed = append(autoClosed, sub)
				b.cfg.Logger.Warn("pubsub: queue overflow, closing subscriber",
					"channel", channel, "subscription", sub.id,
					"capacity", b.cfg.QueueCapacity)
			} else {
				b.cfg.Logger.Warn("pubsub: queue overflow, message dropped",
					"channel", channel, "subscription", sub.id,
					"capacity", b.cfg.QueueCapacity)
			}
			if b.cfg.OnOverflow != nil {
				b.cfg.OnOverflow(channel, sub.id)
			}

		default:
			// Queue already closed (bus shutting down); nothing to deliver.
		}
	}

	for _, sub := range autoClosed {
		ch.remove(sub)
	}
	return nil
}

// Stats returns a snapshot of delivery counters. Auto-closed subscriptions
// stay visible (Closed=true) until the bus is closed; explicitly
// unsubscribed ones are removed.
func (b *broker) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st := Stats{
		TotalPublished: b.totalPublished.Load(),
		TotalDelivered: b.totalDelivered.Load(),
		TotalDropped:   b.totalDropped.Load(),
		Subscriptions:  make(map[string]SubscriptionStats, len(b.subs)),
	}
	for id, sub := range b.subs {
		st.Subscriptions[id] = sub.stats()
	}
	return st
}

// Close shuts the bus down. Every delivery queue is closed: subscribers
// drain what is already queued and then receive ErrSubscriptionClosed.
// Idempotent; operations after Close fail with ErrBusClosed.
func (b *broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, sub := range b.subs {
		sub.queue.close()
	}
	b.cfg.Logger.Debug("pubsub: bus closed", "subscriptions", len(b.subs))
	return nil
}
