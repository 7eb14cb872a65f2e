package bus

import (
	"sync"
	"testing"
	"time"
)

func TestQueueNonBlockingEmpty(t *testing.T) {
	q := newDeliveryQueue(4, false)

	start := time.Now()
	_, err := q.take(false, 0)
	if err != ErrNoMessage {
		t.Fatalf("Expected ErrNoMessage, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Non-blocking take should return immediately, took %v", elapsed)
	}
}

func TestQueueBlockingTimeout(t *testing.T) {
	q := newDeliveryQueue(4, false)

	start := time.Now()
	_, err := q.take(true, 50*time.Millisecond)
	elapsed := time.Since(start)

	if err != ErrNoMessage {
		t.Fatalf("Expected ErrNoMessage on timeout, got %v", err)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("Returned before the timeout: %v", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("Timeout overshot badly: %v", elapsed)
	}
}

func TestQueueBlockingWakesOnOffer(t *testing.T) {
	q := newDeliveryQueue(4, false)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.offer(Message{Payload: "late arrival", ID: 7}, DefaultPriority)
	}()

	msg, err := q.take(true, 2*time.Second)
	if err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if msg.Payload != "late arrival" || msg.ID != 7 {
		t.Errorf("Unexpected message: %+v", msg)
	}
}

func TestQueueCapacity(t *testing.T) {
	q := newDeliveryQueue(2, false)

	if err := q.offer(Message{Payload: 1}, DefaultPriority); err != nil {
		t.Fatalf("offer 1 failed: %v", err)
	}
	if err := q.offer(Message{Payload: 2}, DefaultPriority); err != nil {
		t.Fatalf("offer 2 failed: %v", err)
	}
	if err := q.offer(Message{Payload: 3}, DefaultPriority); err != errQueueFull {
		t.Errorf("Expected errQueueFull at capacity, got %v", err)
	}

	// Draining frees a slot.
	if _, err := q.take(false, 0); err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if err := q.offer(Message{Payload: 4}, DefaultPriority); err != nil {
		t.Errorf("offer after drain failed: %v", err)
	}
}

func TestQueueFIFOOrder(t *testing.T) {
	q := newDeliveryQueue(8, false)

	for i := 0; i < 5; i++ {
		q.offer(Message{Payload: i, ID: uint64(i)}, DefaultPriority)
	}
	for i := 0; i < 5; i++ {
		msg, err := q.take(false, 0)
		if err != nil {
			t.Fatalf("take %d failed: %v", i, err)
		}
		if msg.Payload != i {
			t.Errorf("Position %d: expected %d, got %v", i, i, msg.Payload)
		}
	}
}

// TestQueueCloseDrainsThenTerminal verifies the in-band close semantics:
// entries queued before close stay readable, then the terminal error fires.
func TestQueueCloseDrainsThenTerminal(t *testing.T) {
	q := newDeliveryQueue(4, false)

	q.offer(Message{Payload: "a"}, DefaultPriority)
	q.offer(Message{Payload: "b"}, DefaultPriority)
	q.close()

	for _, want := range []string{"a", "b"} {
		msg, err := q.take(false, 0)
		if err != nil {
			t.Fatalf("take failed: %v", err)
		}
		if msg.Payload != want {
			t.Errorf("Expected %q, got %v", want, msg.Payload)
		}
	}

	if _, err := q.take(false, 0); err != ErrSubscriptionClosed {
		t.Errorf("Expected ErrSubscriptionClosed after drain, got %v", err)
	}
	if _, err := q.take(true, 50*time.Millisecond); err != ErrSubscriptionClosed {
		t.Errorf("Blocking take on closed queue: expected ErrSubscriptionClosed, got %v", err)
	}
}

func TestQueueCloseWakesWaiters(t *testing.T) {
	q := newDeliveryQueue(4, false)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := q.take(true, 5*time.Second); err != ErrSubscriptionClosed {
				t.Errorf("Expected ErrSubscriptionClosed, got %v", err)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not wake blocked waiters")
	}
}

func TestQueueOfferAfterClose(t *testing.T) {
	q := newDeliveryQueue(4, false)
	q.close()
	q.close() // idempotent

	if err := q.offer(Message{Payload: "too late"}, DefaultPriority); err != ErrSubscriptionClosed {
		t.Errorf("Expected ErrSubscriptionClosed, got %v", err)
	}
	if !q.isClosed() {
		t.Error("isClosed should report true")
	}
}

// TestQueueConcurrentOffers verifies multiple publishers can push into one
// queue while a single consumer drains it.
func TestQueueConcurrentOffers(t *testing.T) {
	const producers = 4
	const perProducer = 100

	q := newDeliveryQueue(producers*perProducer, false)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.offer(Message{Payload: i}, DefaultPriority); err != nil {
					t.Errorf("offer failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		if _, err := q.take(false, 0); err != nil {
			break
		}
		count++
	}
	if count != producers*perProducer {
		t.Errorf("Expected %d messages, got %d", producers*perProducer, count)
	}
}
