// Package eventbus implements the in-process typed pub/sub bus (spec §4.3):
// non-blocking publish, per-subscription FIFO dispatch, and an idle barrier
// tests and handlers use to wait for previously published events to drain.
package eventbus

import (
	"log/slog"
	"sync"

	"github.com/gitgovernance/core/pkg/contracts"
)

// Handler reacts to one Event. A handler panic is recovered and logged: it
// never propagates to the publisher and never stops other subscriptions.
type Handler func(event contracts.Event)

// Bus is the shared publish/subscribe event bus every adapter is wired
// against. Each subscription owns a buffered channel and a single goroutine
// draining it in FIFO order, so slow handlers on one subscription never
// block delivery to another.
type Bus struct {
	mu      sync.Mutex
	subs    map[string]*subscription
	nextID  uint64
	pending sync.WaitGroup // tracks in-flight + queued events across all subscriptions
	logger  *slog.Logger
}

type subscription struct {
	id        string
	eventType contracts.EventType
	handler   Handler
	queue     chan contracts.Event
	done      chan struct{}
}

// New returns a ready Bus. logger may be nil to use slog's default.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{subs: make(map[string]*subscription), logger: logger}
}

// Subscribe registers handler for eventType and starts its dispatch
// goroutine, returning a subscriptionId usable with Unsubscribe.
func (b *Bus) Subscribe(eventType contracts.EventType, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{
		id:        subscriptionID(b.nextID),
		eventType: eventType,
		handler:   handler,
		queue:     make(chan contracts.Event, 256),
		done:      make(chan struct{}),
	}
	b.subs[sub.id] = sub
	go b.drain(sub)
	return sub.id
}

func subscriptionID(n uint64) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	if n == 0 {
		return "sub-0"
	}
	buf := make([]byte, 0, 12)
	for n > 0 {
		buf = append([]byte{alphabet[n%uint64(len(alphabet))]}, buf...)
		n /= uint64(len(alphabet))
	}
	return "sub-" + string(buf)
}

func (b *Bus) drain(sub *subscription) {
	for {
		select {
		case event, ok := <-sub.queue:
			if !ok {
				return
			}
			b.dispatch(sub, event)
		case <-sub.done:
			// Release the idle-barrier accounting of events still queued;
			// they are discarded, never dispatched.
			for {
				select {
				case <-sub.queue:
					b.pending.Done()
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) dispatch(sub *subscription, event contracts.Event) {
	defer b.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("eventbus: handler panicked", "subscription", sub.id, "eventType", event.Type, "panic", r)
		}
	}()
	sub.handler(event)
}

// Unsubscribe stops sub and drops its queue. In-flight events already
// dequeued still complete; undispatched ones are discarded.
func (b *Bus) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[subscriptionID]
	if !ok {
		return
	}
	delete(b.subs, subscriptionID)
	close(sub.done)
}

// GetSubscriptions returns the ids of all active subscriptions.
func (b *Bus) GetSubscriptions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	return ids
}

// ClearSubscriptions removes every subscription, stopping all dispatch
// goroutines.
func (b *Bus) ClearSubscriptions() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		close(sub.done)
		delete(b.subs, id)
	}
}

// Publish enqueues event into every subscription matching its type and
// returns immediately; it never runs a handler inline.
func (b *Bus) Publish(event contracts.Event) {
	b.mu.Lock()
	matching := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.eventType == event.Type {
			matching = append(matching, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range matching {
		b.pending.Add(1)
		select {
		case sub.queue <- event:
		default:
			// Queue full: drop this event and release its wait accounting
			// rather than block the publisher.
			b.pending.Done()
			b.logger.Warn("eventbus: subscription queue full, event dropped", "subscription", sub.id, "eventType", event.Type)
		}
	}
}

// WaitForIdle blocks until every subscription's queue is empty and no
// handler is executing. Used by tests and handlers that must quiesce
// before asserting state.
func (b *Bus) WaitForIdle() {
	b.pending.Wait()
}
