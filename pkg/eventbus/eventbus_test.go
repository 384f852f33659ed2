package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitgovernance/core/pkg/contracts"
)

func TestPublish_IsNonBlockingAndDispatches(t *testing.T) {
	bus := New(nil)
	var got atomic.Int32
	bus.Subscribe(contracts.EventFeedbackCreated, func(contracts.Event) {
		got.Add(1)
	})

	bus.Publish(contracts.Event{Type: contracts.EventFeedbackCreated})
	bus.WaitForIdle()

	assert.EqualValues(t, 1, got.Load())
}

func TestSubscribe_OnlyMatchingEventTypeDispatches(t *testing.T) {
	bus := New(nil)
	var feedbackCount, taskCount atomic.Int32
	bus.Subscribe(contracts.EventFeedbackCreated, func(contracts.Event) { feedbackCount.Add(1) })
	bus.Subscribe(contracts.EventExecutionCreated, func(contracts.Event) { taskCount.Add(1) })

	bus.Publish(contracts.Event{Type: contracts.EventFeedbackCreated})
	bus.WaitForIdle()

	assert.EqualValues(t, 1, feedbackCount.Load())
	assert.EqualValues(t, 0, taskCount.Load())
}

func TestPerSubscriptionFIFOOrdering(t *testing.T) {
	bus := New(nil)
	var mu sync.Mutex
	var order []int

	bus.Subscribe(contracts.EventFeedbackCreated, func(e contracts.Event) {
		n := e.Payload["n"].(int)
		time.Sleep(time.Millisecond)
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		bus.Publish(contracts.Event{Type: contracts.EventFeedbackCreated, Payload: map[string]any{"n": i}})
	}
	bus.WaitForIdle()

	require.Len(t, order, 10)
	for i, n := range order {
		assert.Equal(t, i, n)
	}
}

func TestHandlerPanic_DoesNotStopOtherSubscriptions(t *testing.T) {
	bus := New(nil)
	var ok atomic.Bool
	bus.Subscribe(contracts.EventFeedbackCreated, func(contracts.Event) {
		panic("boom")
	})
	bus.Subscribe(contracts.EventFeedbackCreated, func(contracts.Event) {
		ok.Store(true)
	})

	bus.Publish(contracts.Event{Type: contracts.EventFeedbackCreated})
	bus.WaitForIdle()

	assert.True(t, ok.Load())
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	bus := New(nil)
	var count atomic.Int32
	id := bus.Subscribe(contracts.EventFeedbackCreated, func(contracts.Event) { count.Add(1) })
	bus.Unsubscribe(id)

	bus.Publish(contracts.Event{Type: contracts.EventFeedbackCreated})
	time.Sleep(10 * time.Millisecond)

	assert.EqualValues(t, 0, count.Load())
	assert.Empty(t, bus.GetSubscriptions())
}

func TestClearSubscriptions(t *testing.T) {
	bus := New(nil)
	bus.Subscribe(contracts.EventFeedbackCreated, func(contracts.Event) {})
	bus.Subscribe(contracts.EventExecutionCreated, func(contracts.Event) {})
	require.Len(t, bus.GetSubscriptions(), 2)

	bus.ClearSubscriptions()
	assert.Empty(t, bus.GetSubscriptions())
}

func TestDailyTicker_RateLimitsAndPublishes(t *testing.T) {
	bus := New(nil)
	var count atomic.Int32
	bus.Subscribe(contracts.EventSystemDailyTick, func(contracts.Event) { count.Add(1) })

	ticker := NewDailyTicker(bus, time.Hour, "scheduler")
	assert.True(t, ticker.Tick(nil))
	assert.False(t, ticker.Tick(nil)) // second tick within the interval is dropped

	bus.WaitForIdle()
	assert.EqualValues(t, 1, count.Load())
}
