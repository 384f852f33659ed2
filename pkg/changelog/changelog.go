// Package changelog implements the Changelog Adapter: append-only records
// of completed work, referencing the tasks they close out, feeding
// Backlog's handleChangelogCreated (done -> archived).
package changelog

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
	store    store.Store[contracts.ChangelogRecord]
	identity *identity.Adapter
	bus      *eventbus.Bus
	now      func() time.Time
	logger   *slog.Logger
}

func New(st store.Store[contracts.ChangelogRecord], ident *identity.Adapter, bus *eventbus.Bus, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: st, identity: ident, bus: bus, now: time.Now, logger: logger}
}

func (a *Adapter) publish(eventType contracts.EventType, payload map[string]any) {
	if a.bus == nil {
		a.logger.Warn("changelog: event bus absent, dropping event", "eventType", eventType)
		return
	}
	a.bus.Publish(contracts.Event{Type: eventType, TimestampMs: a.now().UnixMilli(), Source: "Changelog.Create", Payload: payload})
}

// Create signs and persists a new changelog entry, then emits
// changelog.created with a flat relatedTasks field alongside the full
// payload snapshot.
func (a *Adapter) Create(ctx context.Context, partial contracts.ChangelogPayload, actorID string) (contracts.ChangelogRecord, error) {
	const op = "Changelog.Create"
	payload, err := records.BuildChangelogPayload(partial, a.now().Unix())
	if err != nil {
		return contracts.ChangelogRecord{}, err
	}

	rec := contracts.ChangelogRecord{
		Header:  contracts.Header{Version: contracts.HeaderVersion, Type: contracts.KindChangelog},
		Payload: payload,
	}
	signed, err := identity.SignRecord(ctx, a.identity, rec, actorID, contracts.RoleAuthor, "")
	if err != nil {
		return contracts.ChangelogRecord{}, err
	}
	if err := a.store.Put(ctx, payload.ID, &signed); err != nil {
		return contracts.ChangelogRecord{}, gitgoverr.Wrap(gitgoverr.KindIOError, op, "persist", err)
	}

	a.publish(contracts.EventChangelogCreated, map[string]any{
		"triggeredBy":  actorID,
		"relatedTasks": payload.RelatedTasks,
		"payload":      payload,
	})
	return signed, nil
}

// GetChangelog returns nil, nil for a missing id.
func (a *Adapter) GetChangelog(ctx context.Context, id string) (*contracts.ChangelogRecord, error) {
	rec, err := a.store.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}
