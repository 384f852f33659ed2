package eventbus

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/gitgovernance/core/pkg/contracts"
)

// DailyTicker periodically publishes system.daily_tick, rate-limited so a
// misconfigured interval (or a manual Tick() from tests/CLI) can't flood
// the bus — an in-process analogue of the teacher's Redis token-bucket
// limiter, scaled down to a single node with golang.org/x/time/rate.
type DailyTicker struct {
	bus     *Bus
	limiter *rate.Limiter
	source  string
}

// NewDailyTicker returns a ticker that allows at most one tick per minInterval,
// bursting up to 1 (a tick that arrives early is dropped, not queued).
func NewDailyTicker(bus *Bus, minInterval time.Duration, source string) *DailyTicker {
	return &DailyTicker{
		bus:     bus,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		source:  source,
	}
}

// Tick publishes system.daily_tick if the limiter allows it, returning
// whether the event was actually published.
func (d *DailyTicker) Tick(payload map[string]any) bool {
	if !d.limiter.Allow() {
		return false
	}
	d.bus.Publish(contracts.Event{
		Type:        contracts.EventSystemDailyTick,
		TimestampMs: time.Now().UnixMilli(),
		Source:      d.source,
		Payload:     payload,
	})
	return true
}

// Run blocks, calling Tick every interval until ctx is cancelled. Intended
// for a long-lived background goroutine in cmd/gitgov; tests call Tick
// directly instead.
func (d *DailyTicker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick(nil)
		}
	}
}
