package backlog

import (
	"context"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/gitgoverr"
	"github.com/gitgovernance/core/pkg/identity"
	"github.com/gitgovernance/core/pkg/methodology"
	"github.com/gitgovernance/core/pkg/store"
)

// EventTaskStatusChanged is Backlog's own event kind, published alongside
// whatever reactive effects a transition triggers — the bus's event-type
// set is open per spec §6, this just names Backlog's addition to it.
const EventTaskStatusChanged contracts.EventType = "task.status.changed"

// buildMethodologyContext pre-fetches everything ValidateCustomRules might
// need for task, so Workflow Methodology never has to reach into a store
// itself (spec §4.7/§4.8 boundary).
func (a *Adapter) buildMethodologyContext(ctx context.Context, task contracts.TaskPayload, actor contracts.ActorPayload, transitionTo string) (methodology.Context, error) {
	mc := methodology.Context{TransitionTo: transitionTo, Task: task, Actor: actor}

	for _, cycleID := range task.CycleIDs {
		cycle, err := a.cycles.Get(ctx, cycleID)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return mc, err
		}
		if cycle.Payload.Status == contracts.CycleStatusActive {
			mc.ActiveCycleReferenced = true
		}
		mc.ChildCycleCount += len(cycle.Payload.ChildCycleIDs)
	}

	if a.feedbackSt != nil {
		ids, err := a.feedbackSt.List(ctx)
		if err != nil {
			return mc, err
		}
		var assignments []contracts.FeedbackRecord
		var clarifications []contracts.FeedbackRecord
		for _, id := range ids {
			rec, err := a.feedbackSt.Get(ctx, id)
			if err != nil {
				continue
			}
			if rec.Payload.EntityType != contracts.FeedbackEntityTask || rec.Payload.EntityID != task.ID {
				continue
			}
			switch rec.Payload.Type {
			case contracts.FeedbackTypeAssignment:
				assignments = append(assignments, *rec)
			case contracts.FeedbackTypeClarification:
				clarifications = append(clarifications, *rec)
			}
		}
		for _, assignment := range assignments {
			for _, c := range clarifications {
				if c.Payload.ResolvesFeedbackID == assignment.Payload.ID {
					mc.ResolvedAssignmentExists = true
				}
			}
		}
	}

	return mc, nil
}

// transition is the shared algorithm behind every lifecycle verb (spec
// §4.8): load task + actor, consult the methodology for legality, sign and
// validate if a signature is required, validate custom rules, apply.
func (a *Adapter) transition(ctx context.Context, taskID, to, actorID string) (contracts.TaskRecord, error) {
	const op = "Backlog.transition"

	rec, err := a.tasks.Get(ctx, taskID)
	if err != nil {
		if store.IsNotFound(err) {
			return contracts.TaskRecord{}, gitgoverr.New(gitgoverr.KindTaskNotFound, op, taskID)
		}
		return contracts.TaskRecord{}, err
	}
	// Idempotent re-entry into the current state is a no-op, per spec
	// §4.8's handler-idempotency requirement applied uniformly to verbs too.
	if string(rec.Payload.Status) == to {
		return *rec, nil
	}

	actorRec, err := a.identity.GetActor(ctx, actorID)
	if err != nil {
		return contracts.TaskRecord{}, err
	}
	if actorRec == nil {
		return contracts.TaskRecord{}, gitgoverr.New(gitgoverr.KindActorNotFound, op, actorID)
	}

	req := a.workflow.GetTransitionRule(string(rec.Payload.Status), to)
	if req == nil {
		return contracts.TaskRecord{}, gitgoverr.New(gitgoverr.KindIllegalTransition, op,
			string(rec.Payload.Status)+" -> "+to+" is not a legal transition")
	}

	working := *rec

	if len(req.Signatures) > 0 {
		role, ok := a.workflow.ResolveSignatureRole(to, actorRec.Payload.Roles)
		if !ok {
			return contracts.TaskRecord{}, gitgoverr.New(gitgoverr.KindUnauthorized, op,
				"actor roles do not match any signature group for this transition")
		}
		signed, err := identity.SignRecord(ctx, a.identity, working, actorID, role, "")
		if err != nil {
			return contracts.TaskRecord{}, err
		}
		mc, err := a.buildMethodologyContext(ctx, signed.Payload, actorRec.Payload, to)
		if err != nil {
			return contracts.TaskRecord{}, err
		}
		mc.Signatures = signed.Header.Signatures
		newSig := signed.Header.Signatures[len(signed.Header.Signatures)-1]
		valid, err := a.workflow.ValidateSignature(newSig, mc)
		if err != nil {
			return contracts.TaskRecord{}, err
		}
		if !valid {
			return contracts.TaskRecord{}, gitgoverr.New(gitgoverr.KindUnauthorized, op,
				"signature did not satisfy the transition's signature rule")
		}
		working = signed
	}

	if len(req.CustomRules) > 0 {
		mc, err := a.buildMethodologyContext(ctx, working.Payload, actorRec.Payload, to)
		if err != nil {
			return contracts.TaskRecord{}, err
		}
		mc.Signatures = working.Header.Signatures
		if !a.workflow.ValidateCustomRules(req.CustomRules, mc) {
			return contracts.TaskRecord{}, gitgoverr.New(gitgoverr.KindPreconditionFailed, op,
				"one or more custom rules rejected this transition")
		}
	}

	from := working.Payload.Status
	working.Payload.Status = contracts.TaskStatus(to)
	if err := a.tasks.Put(ctx, taskID, &working); err != nil {
		return contracts.TaskRecord{}, err
	}
	a.publish(EventTaskStatusChanged, map[string]any{
		"taskId": taskID, "from": string(from), "to": to,
	})
	return working, nil
}

// SubmitTask: draft -> review.
func (a *Adapter) SubmitTask(ctx context.Context, taskID, actorID string) (contracts.TaskRecord, error) {
	return a.transition(ctx, taskID, string(contracts.TaskStatusReview), actorID)
}

// ApproveTask: review -> ready.
func (a *Adapter) ApproveTask(ctx context.Context, taskID, actorID string) (contracts.TaskRecord, error) {
	return a.transition(ctx, taskID, string(contracts.TaskStatusReady), actorID)
}

// ActivateTask: ready|paused -> active.
func (a *Adapter) ActivateTask(ctx context.Context, taskID, actorID string) (contracts.TaskRecord, error) {
	return a.transition(ctx, taskID, string(contracts.TaskStatusActive), actorID)
}

// CompleteTask: active -> done.
func (a *Adapter) CompleteTask(ctx context.Context, taskID, actorID string) (contracts.TaskRecord, error) {
	return a.transition(ctx, taskID, string(contracts.TaskStatusDone), actorID)
}

// PauseTask: active -> paused. Normally driven by handleFeedbackCreated;
// exposed directly too since spec §4.8 lists it among the lifecycle verbs.
func (a *Adapter) PauseTask(ctx context.Context, taskID, actorID string) (contracts.TaskRecord, error) {
	return a.transition(ctx, taskID, string(contracts.TaskStatusPaused), actorID)
}

// ResumeTask: paused -> active.
func (a *Adapter) ResumeTask(ctx context.Context, taskID, actorID string) (contracts.TaskRecord, error) {
	return a.transition(ctx, taskID, string(contracts.TaskStatusActive), actorID)
}

// DiscardTask: any non-terminal state -> discarded.
func (a *Adapter) DiscardTask(ctx context.Context, taskID, actorID string) (contracts.TaskRecord, error) {
	return a.transition(ctx, taskID, string(contracts.TaskStatusDiscarded), actorID)
}
