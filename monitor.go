package pubsub

import (
	"log/slog"
	"time"
)

// AlertFunc receives overflow alerts from an OverflowMonitor. The labels
// map carries the subscription id, channel, drop counters and drop rate.
type AlertFunc func(message string, labels map[string]any)

// OverflowMonitor periodically inspects bus Stats and raises alerts for
// subscriptions that were auto-closed or whose drop rate crosses a
// threshold. It is a caller-side convenience: the bus itself never needs
// one to function.
//
// Usage:
//
//	monitor := pubsub.NewOverflowMonitor(bus, nil) // nil = log via slog
//	stop := make(chan struct{})
//	go monitor.Run(stop)
//	defer close(stop)
type OverflowMonitor struct {
	bus       Bus
	alert     AlertFunc
	interval  time.Duration
	threshold float64

	// alerted remembers already-reported closed subscriptions so each one
	// is raised once. Accessed only from the Run goroutine.
	alerted map[string]bool
}

// NewOverflowMonitor creates a monitor checking every 10 seconds with a
// 0.1 drop-rate threshold. A nil alert falls back to slog warnings.
func NewOverflowMonitor(b Bus, alert AlertFunc) *OverflowMonitor {
	if alert == nil {
		alert = func(message string, labels map[string]any) {
			args := make([]any, 0, len(labels)*2)
			for k, v := range labels {
				args = append(args, k, v)
			}
			slog.Warn(message, args...)
		}
	}
	return &OverflowMonitor{
		bus:       b,
		alert:     alert,
		interval:  10 * time.Second,
		threshold: 0.1,
		alerted:   make(map[string]bool),
	}
}

// SetInterval overrides the check interval. Call before Run.
func (m *OverflowMonitor) SetInterval(d time.Duration) { m.interval = d }

// SetThreshold overrides the drop-rate threshold. Call before Run.
func (m *OverflowMonitor) SetThreshold(rate float64) { m.threshold = rate }

// Run blocks, checking stats every interval until stopCh is closed.
func (m *OverflowMonitor) Run(stopCh <-chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check()
		case <-stopCh:
			return
		}
	}
}

// Check inspects the current stats once. Exposed for tests and for callers
// with their own scheduling.
func (m *OverflowMonitor) Check() {
	stats := m.bus.Stats()

	for id, sub := range stats.Subscriptions {
		total := sub.Delivered + sub.Dropped
		if total == 0 {
			continue
		}
		dropRate := float64(sub.Dropped) / float64(total)

		if sub.Closed {
			if !m.alerted[id] {
				m.alerted[id] = true
				m.alert("pubsub_subscriber_closed_by_overflow", map[string]any{
					"subscription": id,
					"channel":      sub.Channel,
					"delivered":    sub.Delivered,
					"dropped":      sub.Dropped,
					"drop_rate":    dropRate,
				})
			}
			continue
		}

		if dropRate >= m.threshold {
			m.alert("pubsub_subscriber_drop_rate_high", map[string]any{
				"subscription": id,
				"channel":      sub.Channel,
				"delivered":    sub.Delivered,
				"dropped":      sub.Dropped,
				"drop_rate":    dropRate,
				"threshold":    m.threshold,
			})
		}
	}
}
