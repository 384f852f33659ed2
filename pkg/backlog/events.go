package backlog

import (
	"context"
	"fmt"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/store"
)

// systemActorID is the "triggered by" id the daily-tick suggestion handler
// signs its resulting feedback records with, per spec §4.8's
// "triggeredBy 'system'" phrasing. It must name an actor Identity actually
// knows about for signRecord to succeed; deployments are expected to
// bootstrap one.
const systemActorID = "agent:gitgov-system"

func stringFromPayload(payload map[string]any, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// handleFeedbackCreated reacts to a newly published feedback.created event:
// a new open blocking feedback pauses an active task; a feedback that
// resolves another one resumes the task if no blockers remain.
//
// Feedback publishes the full contracts.FeedbackPayload nested under the
// "payload" key (see pkg/feedback), not flat entityType/entityId/type
// fields - a resolution additionally carries "resolvesFeedbackId", and in
// that case the nested payload's own EntityType is "feedback" and its
// EntityID is the ORIGINAL feedback's id, not the task's. The task id must
// be recovered by looking the original feedback back up.
func (a *Adapter) handleFeedbackCreated(event contracts.Event) {
	ctx := context.Background()
	payload, ok := event.Payload["payload"].(contracts.FeedbackPayload)
	if !ok {
		return
	}
	resolves := stringFromPayload(event.Payload, "resolvesFeedbackId")

	if resolves == "" {
		if payload.EntityType != contracts.FeedbackEntityTask || payload.EntityID == "" {
			return
		}
		if payload.Type != contracts.FeedbackTypeBlocking {
			return
		}
		taskID := payload.EntityID
		task, err := a.tasks.Get(ctx, taskID)
		if err != nil {
			if !store.IsNotFound(err) {
				a.logger.Warn("backlog: handleFeedbackCreated lookup failed", "taskId", taskID, "err", err)
			}
			return
		}
		if task.Payload.Status == contracts.TaskStatusActive {
			if _, err := a.PauseTask(ctx, taskID, systemActorID); err != nil {
				a.logger.Warn("backlog: auto-pause on blocking feedback failed", "taskId", taskID, "err", err)
			}
		}
		return
	}

	original, err := a.feedbackSt.Get(ctx, resolves)
	if err != nil {
		if !store.IsNotFound(err) {
			a.logger.Warn("backlog: handleFeedbackCreated resolved-feedback lookup failed", "feedbackId", resolves, "err", err)
		}
		return
	}
	if original.Payload.EntityType != contracts.FeedbackEntityTask || original.Payload.EntityID == "" {
		return
	}
	taskID := original.Payload.EntityID

	health, err := a.metrics.GetTaskHealth(ctx, taskID)
	if err != nil {
		a.logger.Warn("backlog: handleFeedbackCreated health check failed", "taskId", taskID, "err", err)
		return
	}
	if health.BlockingFeedbacks == 0 {
		task, err := a.tasks.Get(ctx, taskID)
		if err != nil {
			return
		}
		if task.Payload.Status == contracts.TaskStatusPaused {
			if _, err := a.ResumeTask(ctx, taskID, systemActorID); err != nil {
				a.logger.Warn("backlog: auto-resume after last blocker resolved failed", "taskId", taskID, "err", err)
			}
		}
	}
}

// handleExecutionCreated transitions a task from ready to active on its
// first recorded execution.
func (a *Adapter) handleExecutionCreated(event contracts.Event) {
	ctx := context.Background()
	taskID := stringFromPayload(event.Payload, "taskId")
	actorID := stringFromPayload(event.Payload, "actorId")
	if taskID == "" {
		return
	}
	task, err := a.tasks.Get(ctx, taskID)
	if err != nil {
		return
	}
	if task.Payload.Status != contracts.TaskStatusReady {
		return
	}
	if actorID == "" {
		actorID = systemActorID
	}
	if _, err := a.ActivateTask(ctx, taskID, actorID); err != nil {
		a.logger.Warn("backlog: auto-activate on first execution failed", "taskId", taskID, "err", err)
	}
}

// handleChangelogCreated archives every related task that is currently
// done.
func (a *Adapter) handleChangelogCreated(event contracts.Event) {
	ctx := context.Background()
	related, _ := event.Payload["relatedTasks"].([]string)
	for _, taskID := range related {
		task, err := a.tasks.Get(ctx, taskID)
		if err != nil {
			continue
		}
		if task.Payload.Status != contracts.TaskStatusDone {
			continue
		}
		if _, err := a.transition(ctx, taskID, string(contracts.TaskStatusArchived), systemActorID); err != nil {
			a.logger.Warn("backlog: auto-archive on changelog failed", "taskId", taskID, "err", err)
		}
	}
}

// handleCycleStatusChanged archives the done tasks of a cycle whose status
// changes to archived, whatever status it left; other cycle status changes
// are ignored.
func (a *Adapter) handleCycleStatusChanged(event contracts.Event) {
	ctx := context.Background()
	cycleID := stringFromPayload(event.Payload, "cycleId")
	to := stringFromPayload(event.Payload, "to")
	if cycleID == "" || to != string(contracts.CycleStatusArchived) {
		return
	}
	cycle, err := a.cycles.Get(ctx, cycleID)
	if err != nil {
		return
	}
	for _, taskID := range cycle.Payload.TaskIDs {
		task, err := a.tasks.Get(ctx, taskID)
		if err != nil {
			continue
		}
		if task.Payload.Status != contracts.TaskStatusDone {
			continue
		}
		if _, err := a.transition(ctx, taskID, string(contracts.TaskStatusArchived), systemActorID); err != nil {
			a.logger.Warn("backlog: archive propagation from cycle failed", "taskId", taskID, "cycleId", cycleID, "err", err)
		}
	}
}

// handleDailyTick audits every task's health against the configured
// thresholds and raises a "suggestion" feedback for the ones that fail.
func (a *Adapter) handleDailyTick(event contracts.Event) {
	ctx := context.Background()
	status, err := a.metrics.GetSystemStatus(ctx)
	if err != nil {
		a.logger.Warn("backlog: handleDailyTick system status failed", "err", err)
		return
	}
	if status.HealthScore < a.cfg.SystemMinScore {
		a.logger.Warn("backlog: system health below threshold", "healthScore", status.HealthScore, "min", a.cfg.SystemMinScore)
	}

	if a.tasks == nil {
		return
	}
	ids, err := a.tasks.List(ctx)
	if err != nil {
		return
	}
	for _, id := range ids {
		health, err := a.metrics.GetTaskHealth(ctx, id)
		if err != nil {
			continue
		}
		if health.HealthScore < a.cfg.TaskMinScore || health.TimeInCurrentStage > a.cfg.MaxDaysInStage {
			if a.feedback == nil {
				continue
			}
			_, err := a.feedback.Create(ctx, contracts.FeedbackPayload{
				EntityType: contracts.FeedbackEntityTask,
				EntityID:   id,
				Type:       contracts.FeedbackTypeSuggestion,
				Content: fmt.Sprintf("daily health audit: score=%d timeInStage=%.1fd below thresholds (min=%d, maxDays=%.1f)",
					health.HealthScore, health.TimeInCurrentStage, a.cfg.TaskMinScore, a.cfg.MaxDaysInStage),
			}, "daily health audit", systemActorID)
			if err != nil {
				a.logger.Warn("backlog: daily-tick suggestion feedback failed", "taskId", id, "err", err)
			}
		}
	}
}
