// Package pubsub provides an in-process publish/subscribe message bus.
//
// # Overview
//
// Publishers post payloads onto named channels; any number of subscribers
// independently drain their own bounded queue of messages for that channel:
//
//	"One publish, one sequence id, one copy per subscriber."
//
// There is no network, no persistence and no replay - the bus exists to
// decouple concurrent workers inside a single process.
//
// # Basic Usage
//
// Create a bus, subscribe, publish, drain:
//
//	bus := pubsub.New()
//	defer bus.Close()
//
//	sub, _ := bus.Subscribe("orders")
//	defer sub.Unsubscribe()
//
//	bus.Publish("orders", "Hello World")
//
//	for msg, err := range sub.Listen(false, 0) {
//	    if err != nil {
//	        break // subscription closed
//	    }
//	    fmt.Println(msg.Payload, msg.ID)
//	}
//
// # Sequence Ids
//
// Each channel numbers its publish events: the first publish on a channel
// carries id 0, later ones (prev+1) mod the configured wraparound bound.
// All subscribers of one publish call see the same id. Ids number publish
// events, not per-subscriber deliveries.
//
// # Delivery Order
//
// A bus built with New delivers strictly in publish order (FIFO). A bus
// built with NewPriority orders each queue by (priority, publish order)
// ascending - lower priority values first, FIFO within a tier.
//
// # Overflow
//
// Publish never blocks. When a subscriber's queue is at capacity the
// configured policy fires for that subscriber only:
//
//   - CloseOnOverflow (default): the queue is closed and detached from the
//     channel. The subscriber drains what is queued, then receives
//     ErrSubscriptionClosed.
//   - DropOnOverflow: the message is dropped for that subscriber, counted
//     in Stats, logged, and reported to the optional overflow handler. The
//     subscription stays alive.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Multiple goroutines can
// publish to the same channel, and Subscribe/Unsubscribe can race with
// publishes. The only intentional blocking point is a subscriber waiting
// in Receive or a blocking Listen.
//
// # Observability
//
// Stats returns global and per-subscription delivery counters. DropRate and
// OverflowMonitor build drop-rate alerting on top of them.
//
// # Example
//
// See examples/basic and examples/priority for complete programs.
package pubsub
