package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
)

func TestBus_FIFODeliveryIgnoresPriority(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	priorities := []core.Priority{core.PriorityLow, core.PriorityUrgent, core.PriorityNormal}
	var sent []string
	for _, p := range priorities {
		msg := core.NewMessage("a", "b", core.MessageTypeStatusUpdate, p, nil)
		id, err := bus.Send(msg)
		require.NoError(t, err)
		sent = append(sent, id)
	}

	for i, wantID := range sent {
		msg, ok := bus.Receive(ctx, time.Second)
		require.True(t, ok, "message %d should be available", i)
		assert.Equal(t, wantID, msg.ID, "delivery order must match send order")
	}
}

func TestBus_RequestGetsOwnIDAsCorrelation(t *testing.T) {
	bus := NewBus()

	id, err := bus.Send(core.NewMessage("a", "b", core.MessageTypeResearchRequest, core.PriorityHigh, nil))
	require.NoError(t, err)

	msg, ok := bus.Receive(context.Background(), time.Second)
	require.True(t, ok)
	assert.Equal(t, id, msg.CorrelationID)
}

func TestBus_NonRequestKeepsEmptyCorrelation(t *testing.T) {
	bus := NewBus()

	_, err := bus.Send(core.NewMessage("a", "b", core.MessageTypeStatusUpdate, core.PriorityLow, nil))
	require.NoError(t, err)

	msg, ok := bus.Receive(context.Background(), time.Second)
	require.True(t, ok)
	assert.Empty(t, msg.CorrelationID)
}

func TestBus_ExplicitCorrelationPreserved(t *testing.T) {
	bus := NewBus()

	msg := core.NewMessage("a", "b", core.MessageTypeResearchRequest, core.PriorityHigh, nil)
	msg.CorrelationID = "existing"
	_, err := bus.Send(msg)
	require.NoError(t, err)

	got, ok := bus.Receive(context.Background(), time.Second)
	require.True(t, ok)
	assert.Equal(t, "existing", got.CorrelationID)
}

func TestBus_ReceiveTimeoutIsEmptyNotError(t *testing.T) {
	bus := NewBus()

	start := time.Now()
	_, ok := bus.Receive(context.Background(), 20*time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestBus_ReceiveHonorsContextCancellation(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, ok := bus.Receive(ctx, 0)
	assert.False(t, ok)
}

func TestBus_WaitForCorrelated(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	// An unrelated message ahead of the match is consumed and discarded.
	_, err := bus.Send(core.NewMessage("x", "y", core.MessageTypeStatusUpdate, core.PriorityLow, nil))
	require.NoError(t, err)

	results := core.NewMessage("b", "a", core.MessageTypeResearchResults, core.PriorityNormal, map[string]any{"hits": 3})
	results.CorrelationID = "req-1"
	_, err = bus.Send(results)
	require.NoError(t, err)

	match, ok := bus.WaitForCorrelated(ctx, "req-1", time.Second)
	require.True(t, ok)
	assert.Equal(t, results.ID, match.ID)

	// The discarded status update must not have been re-queued.
	_, ok = bus.Receive(ctx, 20*time.Millisecond)
	assert.False(t, ok)
}

func TestBus_WaitForCorrelatedTimeout(t *testing.T) {
	bus := NewBus()

	_, ok := bus.WaitForCorrelated(context.Background(), "never", 30*time.Millisecond)
	assert.False(t, ok)
}

func TestBus_SendQueueFull(t *testing.T) {
	bus := NewBus(func(o *BusOptions) { o.QueueCapacity = 1 })

	_, err := bus.Send(core.NewMessage("a", "b", core.MessageTypeStatusUpdate, core.PriorityLow, nil))
	require.NoError(t, err)

	_, err = bus.Send(core.NewMessage("a", "b", core.MessageTypeStatusUpdate, core.PriorityLow, nil))
	assert.ErrorIs(t, err, core.ErrQueueFull)

	// The rejected message must not appear in the traffic log.
	assert.Len(t, bus.TrafficLog(), 1)
	assert.Equal(t, 1, bus.Pending())
}

func TestBus_TrafficLogSurvivesDelivery(t *testing.T) {
	bus := NewBus()

	_, err := bus.Send(core.NewMessage("a", "b", core.MessageTypeResearchRequest, core.PriorityHigh, nil))
	require.NoError(t, err)

	_, ok := bus.Receive(context.Background(), time.Second)
	require.True(t, ok)

	assert.Len(t, bus.TrafficLog(), 1, "delivered messages stay in the log")
	assert.Equal(t, 0, bus.Pending())
}
