// Package agent implements the Agent Adapter (spec §4.5): agent manifest
// CRUD anchored to an Actor of type "agent".
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/crypto"
	"github.com/gitgovernance/core/pkg/eventbus"
	"github.com/gitgovernance/core/pkg/gitgoverr"
	"github.com/gitgovernance/core/pkg/identity"
	"github.com/gitgovernance/core/pkg/records"
	"github.com/gitgovernance/core/pkg/store"
)

// Adapter is the Agent Adapter.
type Adapter struct {
	store    store.Store[contracts.AgentRecord]
	identity *identity.Adapter
	bus      *eventbus.Bus
	logger   *slog.Logger
}

func New(st store.Store[contracts.AgentRecord], ident *identity.Adapter, bus *eventbus.Bus, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: st, identity: ident, bus: bus, logger: logger}
}

func (a *Adapter) publish(eventType contracts.EventType, source string, payload map[string]any) {
	if a.bus == nil {
		a.logger.Warn("agent: event bus absent, dropping event", "eventType", eventType)
		return
	}
	a.bus.Publish(contracts.Event{Type: eventType, Source: source, Payload: payload})
}

// Create requires an existing ActorRecord of type "agent" at partial.ID,
// loads its private key (required, no mock fallback per spec §4.5), signs,
// and persists.
func (a *Adapter) Create(ctx context.Context, partial contracts.AgentPayload, actorID string) (contracts.AgentRecord, error) {
	const op = "Agent.Create"
	if partial.ID == "" {
		return contracts.AgentRecord{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "id is required")
	}

	actor, err := a.identity.GetActor(ctx, partial.ID)
	if err != nil {
		return contracts.AgentRecord{}, err
	}
	if actor == nil {
		return contracts.AgentRecord{}, gitgoverr.New(gitgoverr.KindActorNotFound, op, fmt.Sprintf("actor %q not found", partial.ID))
	}
	if actor.Payload.Type != contracts.ActorTypeAgent {
		return contracts.AgentRecord{}, gitgoverr.New(gitgoverr.KindActorNotAgent, op, fmt.Sprintf("actor %q is not type=agent", partial.ID))
	}

	payload, err := records.BuildAgentPayload(partial)
	if err != nil {
		return contracts.AgentRecord{}, err
	}

	rec := contracts.AgentRecord{
		Header:  contracts.Header{Version: contracts.HeaderVersion, Type: contracts.KindAgent},
		Payload: payload,
	}
	signed, err := identity.SignRecord(ctx, a.identity, rec, actorID, contracts.RoleAuthor, "agent manifest registration")
	if err != nil {
		return contracts.AgentRecord{}, err
	}
	if signed.Header.Signatures[0].Signature == crypto.PlaceholderSignature {
		return contracts.AgentRecord{}, gitgoverr.New(gitgoverr.KindPrivateKeyNotFound, op, fmt.Sprintf("no private key for agent actor %q", partial.ID))
	}

	if err := a.store.Put(ctx, payload.ID, &signed); err != nil {
		return contracts.AgentRecord{}, gitgoverr.Wrap(gitgoverr.KindIOError, op, "persist", err)
	}

	a.publish(contracts.EventAgentRegistered, op, map[string]any{"agentId": payload.ID})
	return signed, nil
}

// Update forbids changing id; re-signs and persists the merged payload.
func (a *Adapter) Update(ctx context.Context, id string, mutate func(*contracts.AgentPayload), actorID string) (contracts.AgentRecord, error) {
	const op = "Agent.Update"
	rec, err := a.Get(ctx, id)
	if err != nil {
		return contracts.AgentRecord{}, err
	}
	if rec == nil {
		return contracts.AgentRecord{}, gitgoverr.New(gitgoverr.KindRecordNotFound, op, fmt.Sprintf("agent %q not found", id))
	}
	before := rec.Payload.ID
	mutate(&rec.Payload)
	rec.Payload.ID = before // id is immutable regardless of what mutate did

	if _, err := records.ValidateAgentPayload(rec.Payload); err != nil {
		return contracts.AgentRecord{}, err
	}

	signed, err := identity.SignRecord(ctx, a.identity, *rec, actorID, contracts.RoleAuthor, "agent manifest update")
	if err != nil {
		return contracts.AgentRecord{}, err
	}
	if err := a.store.Put(ctx, id, &signed); err != nil {
		return contracts.AgentRecord{}, gitgoverr.Wrap(gitgoverr.KindIOError, op, "persist", err)
	}
	return signed, nil
}

// Archive is Update with status="archived".
func (a *Adapter) Archive(ctx context.Context, id, actorID string) (contracts.AgentRecord, error) {
	return a.Update(ctx, id, func(p *contracts.AgentPayload) { p.Status = contracts.AgentStatusArchived }, actorID)
}

// Get returns nil, nil for a missing agent.
func (a *Adapter) Get(ctx context.Context, id string) (*contracts.AgentRecord, error) {
	rec, err := a.store.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, gitgoverr.Wrap(gitgoverr.KindIOError, "Agent.Get", "read", err)
	}
	return rec, nil
}

// List returns every persisted agent record.
func (a *Adapter) List(ctx context.Context) ([]contracts.AgentRecord, error) {
	ids, err := a.store.List(ctx)
	if err != nil {
		return nil, gitgoverr.Wrap(gitgoverr.KindIOError, "Agent.List", "list", err)
	}
	out := make([]contracts.AgentRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := a.store.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}
