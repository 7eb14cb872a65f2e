package pubsub_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visiona/pubsub"
)

func TestMonitorReportsClosedSubscriber(t *testing.T) {
	b := pubsub.New(pubsub.WithQueueCapacity(1))
	defer b.Close()

	var alerts []string
	monitor := pubsub.NewOverflowMonitor(b, func(message string, labels map[string]any) {
		alerts = append(alerts, message)
	})

	_, err := b.Subscribe("test")
	require.NoError(t, err)

	require.NoError(t, b.Publish("test", "m0"))
	require.NoError(t, b.Publish("test", "m1")) // overflow closes sub

	monitor.Check()
	require.Equal(t, []string{"pubsub_subscriber_closed_by_overflow"}, alerts)

	// A closed subscription is reported once, not on every check.
	monitor.Check()
	assert.Len(t, alerts, 1)
}

func TestMonitorReportsHighDropRate(t *testing.T) {
	b := pubsub.New(
		pubsub.WithQueueCapacity(1),
		pubsub.WithOverflowPolicy(pubsub.DropOnOverflow),
	)
	defer b.Close()

	var alerts []map[string]any
	monitor := pubsub.NewOverflowMonitor(b, func(message string, labels map[string]any) {
		alerts = append(alerts, labels)
	})
	monitor.SetThreshold(0.4)

	sub, err := b.Subscribe("test")
	require.NoError(t, err)

	require.NoError(t, b.Publish("test", "kept"))
	require.NoError(t, b.Publish("test", "dropped")) // drop rate 0.5

	monitor.Check()
	require.Len(t, alerts, 1)
	assert.Equal(t, sub.ID(), alerts[0]["subscription"])
	assert.Equal(t, "test", alerts[0]["channel"])
	assert.Equal(t, 0.5, alerts[0]["drop_rate"])
}

func TestMonitorQuietWhenHealthy(t *testing.T) {
	b := pubsub.New()
	defer b.Close()

	called := false
	monitor := pubsub.NewOverflowMonitor(b, func(string, map[string]any) { called = true })

	sub, err := b.Subscribe("test")
	require.NoError(t, err)
	require.NoError(t, b.Publish("test", "fine"))
	_, err = sub.Receive(time.Second)
	require.NoError(t, err)

	monitor.Check()
	assert.False(t, called)
}

func TestMonitorRunStops(t *testing.T) {
	b := pubsub.New()
	defer b.Close()

	monitor := pubsub.NewOverflowMonitor(b, func(string, map[string]any) {})
	monitor.SetInterval(5 * time.Millisecond)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		monitor.Run(stop)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
