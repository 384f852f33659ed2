// Package feedback implements the Feedback Adapter (spec §4.6): creates and
// resolves feedback as immutable records, emitting events the Backlog
// Adapter reacts to.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/eventbus"
	"github.com/gitgovernance/core/pkg/gitgoverr"
	"github.com/gitgovernance/core/pkg/identity"
	"github.com/gitgovernance/core/pkg/records"
	"github.com/gitgovernance/core/pkg/store"
)

// Adapter is the Feedback Adapter.
type Adapter struct {
	store    store.Store[contracts.FeedbackRecord]
	identity *identity.Adapter
	bus      *eventbus.Bus
	now      func() time.Time
	logger   *slog.Logger
}

func New(st store.Store[contracts.FeedbackRecord], ident *identity.Adapter, bus *eventbus.Bus, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: st, identity: ident, bus: bus, now: time.Now, logger: logger}
}

func (a *Adapter) publish(eventType contracts.EventType, source string, payload map[string]any) {
	if a.bus == nil {
		a.logger.Warn("feedback: event bus absent, dropping event", "eventType", eventType)
		return
	}
	a.bus.Publish(contracts.Event{Type: eventType, TimestampMs: a.now().UnixMilli(), Source: source, Payload: payload})
}

// hasOpenAssignment reports whether an open assignment feedback already
// exists for entityId+assignee (the duplicate-assignment guard).
func (a *Adapter) hasOpenAssignment(ctx context.Context, entityID, assignee string) (bool, error) {
	ids, err := a.store.List(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		rec, err := a.store.Get(ctx, id)
		if err != nil {
			continue
		}
		p := rec.Payload
		if p.EntityID == entityID && p.Type == contracts.FeedbackTypeAssignment &&
			p.Status == contracts.FeedbackStatusOpen && p.Assignee == assignee {
			return true, nil
		}
	}
	return false, nil
}

// Create validates, applies the duplicate-assignment guard, signs, persists,
// and emits feedback.created with the full payload snapshot.
func (a *Adapter) Create(ctx context.Context, partial contracts.FeedbackPayload, title, actorID string) (contracts.FeedbackRecord, error) {
	const op = "Feedback.Create"
	if partial.EntityID == "" {
		return contracts.FeedbackRecord{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "entityId is required")
	}

	if partial.Type == contracts.FeedbackTypeAssignment {
		dup, err := a.hasOpenAssignment(ctx, partial.EntityID, partial.Assignee)
		if err != nil {
			return contracts.FeedbackRecord{}, gitgoverr.Wrap(gitgoverr.KindIOError, op, "duplicate check", err)
		}
		if dup {
			return contracts.FeedbackRecord{}, gitgoverr.New(gitgoverr.KindDuplicateAssignment, op,
				fmt.Sprintf("entity %q already has an open assignment for %q", partial.EntityID, partial.Assignee))
		}
	}

	payload, err := records.BuildFeedbackPayload(partial, title, a.now().Unix())
	if err != nil {
		return contracts.FeedbackRecord{}, err
	}

	rec := contracts.FeedbackRecord{
		Header:  contracts.Header{Version: contracts.HeaderVersion, Type: contracts.KindFeedback},
		Payload: payload,
	}
	signed, err := identity.SignRecord(ctx, a.identity, rec, actorID, contracts.RoleAuthor, "feedback creation")
	if err != nil {
		return contracts.FeedbackRecord{}, err
	}
	if err := a.store.Put(ctx, payload.ID, &signed); err != nil {
		return contracts.FeedbackRecord{}, gitgoverr.Wrap(gitgoverr.KindIOError, op, "persist", err)
	}

	a.publish(contracts.EventFeedbackCreated, op, map[string]any{
		"triggeredBy": actorID,
		"payload":     payload,
	})
	return signed, nil
}

// Resolve produces a NEW feedback record pointing back at the original via
// resolvesFeedbackId, preserving immutability (spec §4.6).
func (a *Adapter) Resolve(ctx context.Context, feedbackID, actorID, note string) (contracts.FeedbackRecord, error) {
	const op = "Feedback.Resolve"
	original, err := a.GetFeedback(ctx, feedbackID)
	if err != nil {
		return contracts.FeedbackRecord{}, err
	}
	if original == nil {
		return contracts.FeedbackRecord{}, gitgoverr.New(gitgoverr.KindFeedbackNotFound, op, fmt.Sprintf("feedback %q not found", feedbackID))
	}
	if original.Payload.Status == contracts.FeedbackStatusResolved {
		return contracts.FeedbackRecord{}, gitgoverr.New(gitgoverr.KindAlreadyResolved, op, fmt.Sprintf("feedback %q already resolved", feedbackID))
	}
	// Originals are never rewritten, so an earlier resolution shows up only
	// as another record pointing back at this one.
	all, err := a.GetAllFeedback(ctx)
	if err != nil {
		return contracts.FeedbackRecord{}, err
	}
	for _, rec := range all {
		if rec.Payload.ResolvesFeedbackID == feedbackID {
			return contracts.FeedbackRecord{}, gitgoverr.New(gitgoverr.KindAlreadyResolved, op, fmt.Sprintf("feedback %q already resolved", feedbackID))
		}
	}

	partial := contracts.FeedbackPayload{
		EntityType:         contracts.FeedbackEntityFeedback,
		EntityID:           original.Payload.ID,
		Type:               contracts.FeedbackTypeClarification,
		Status:             contracts.FeedbackStatusResolved,
		Content:            note,
		ResolvesFeedbackID: original.Payload.ID,
	}
	payload, err := records.BuildFeedbackPayload(partial, note, a.now().Unix())
	if err != nil {
		return contracts.FeedbackRecord{}, err
	}

	rec := contracts.FeedbackRecord{
		Header:  contracts.Header{Version: contracts.HeaderVersion, Type: contracts.KindFeedback},
		Payload: payload,
	}
	signed, err := identity.SignRecord(ctx, a.identity, rec, actorID, contracts.RoleAuthor, "feedback resolution")
	if err != nil {
		return contracts.FeedbackRecord{}, err
	}
	if err := a.store.Put(ctx, payload.ID, &signed); err != nil {
		return contracts.FeedbackRecord{}, gitgoverr.Wrap(gitgoverr.KindIOError, op, "persist", err)
	}

	a.publish(contracts.EventFeedbackCreated, op, map[string]any{
		"triggeredBy":        actorID,
		"payload":            payload,
		"resolvesFeedbackId": original.Payload.ID,
	})
	return signed, nil
}

// GetFeedback returns nil, nil for a missing id.
func (a *Adapter) GetFeedback(ctx context.Context, id string) (*contracts.FeedbackRecord, error) {
	rec, err := a.store.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, gitgoverr.Wrap(gitgoverr.KindIOError, "Feedback.GetFeedback", "read", err)
	}
	return rec, nil
}

// GetFeedbackByEntity returns every feedback record targeting entityID.
func (a *Adapter) GetFeedbackByEntity(ctx context.Context, entityID string) ([]contracts.FeedbackRecord, error) {
	all, err := a.GetAllFeedback(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contracts.FeedbackRecord, 0)
	for _, rec := range all {
		if rec.Payload.EntityID == entityID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// GetAllFeedback returns every persisted feedback record.
func (a *Adapter) GetAllFeedback(ctx context.Context) ([]contracts.FeedbackRecord, error) {
	ids, err := a.store.List(ctx)
	if err != nil {
		return nil, gitgoverr.Wrap(gitgoverr.KindIOError, "Feedback.GetAllFeedback", "list", err)
	}
	out := make([]contracts.FeedbackRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := a.store.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}
