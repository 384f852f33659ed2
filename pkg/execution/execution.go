// Package execution implements the Execution Adapter: append-only records
// of an attempt at advancing a task, one per actor action, feeding
// Backlog's handleExecutionCreated (ready -> active) and Metrics'
// staleness/throughput calculations.
package execution

import (
	"context"
	"log/slog"
	"time"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/eventbus"
	"github.com/gitgovernance/core/pkg/gitgoverr"
	"github.com/gitgovernance/core/pkg/identity"
	"github.com/gitgovernance/core/pkg/records"
	"github.com/gitgovernance/core/pkg/store"
)

type Adapter struct {
	store    store.Store[contracts.ExecutionRecord]
	identity *identity.Adapter
	bus      *eventbus.Bus
	now      func() time.Time
	logger   *slog.Logger
}

func New(st store.Store[contracts.ExecutionRecord], ident *identity.Adapter, bus *eventbus.Bus, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: st, identity: ident, bus: bus, now: time.Now, logger: logger}
}

func (a *Adapter) publish(eventType contracts.EventType, payload map[string]any) {
	if a.bus == nil {
		a.logger.Warn("execution: event bus absent, dropping event", "eventType", eventType)
		return
	}
	a.bus.Publish(contracts.Event{Type: eventType, TimestampMs: a.now().UnixMilli(), Source: "Execution.Create", Payload: payload})
}

// Create signs and persists a new execution entry, then emits
// execution.created with flat taskId/actorId fields alongside the full
// payload snapshot (Feedback, by contrast, publishes only the snapshot).
func (a *Adapter) Create(ctx context.Context, partial contracts.ExecutionPayload, title, actorID string) (contracts.ExecutionRecord, error) {
	const op = "Execution.Create"
	if partial.ActorID == "" {
		partial.ActorID = actorID
	}
	payload, err := records.BuildExecutionPayload(partial, title, a.now().Unix())
	if err != nil {
		return contracts.ExecutionRecord{}, err
	}

	rec := contracts.ExecutionRecord{
		Header:  contracts.Header{Version: contracts.HeaderVersion, Type: contracts.KindExecution},
		Payload: payload,
	}
	signed, err := identity.SignRecord(ctx, a.identity, rec, actorID, contracts.RoleExecutor, "")
	if err != nil {
		return contracts.ExecutionRecord{}, err
	}
	if err := a.store.Put(ctx, payload.ID, &signed); err != nil {
		return contracts.ExecutionRecord{}, gitgoverr.Wrap(gitgoverr.KindIOError, op, "persist", err)
	}

	a.publish(contracts.EventExecutionCreated, map[string]any{
		"triggeredBy": actorID,
		"taskId":      payload.TaskID,
		"actorId":     payload.ActorID,
		"payload":     payload,
	})
	return signed, nil
}

// GetExecution returns nil, nil for a missing id.
func (a *Adapter) GetExecution(ctx context.Context, id string) (*contracts.ExecutionRecord, error) {
	rec, err := a.store.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// GetExecutionsForTask returns every execution recorded against taskID.
func (a *Adapter) GetExecutionsForTask(ctx context.Context, taskID string) ([]contracts.ExecutionRecord, error) {
	ids, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contracts.ExecutionRecord, 0)
	for _, id := range ids {
		rec, err := a.store.Get(ctx, id)
		if err != nil {
			continue
		}
		if rec.Payload.TaskID == taskID {
			out = append(out, *rec)
		}
	}
	return out, nil
}
