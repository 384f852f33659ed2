package backlog

import (
	"context"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/gitgoverr"
	"github.com/gitgovernance/core/pkg/store"
)

func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func appendUnique(ss []string, s string) []string {
	if containsStr(ss, s) {
		return ss
	}
	return append(ss, s)
}

func removeStr(ss []string, s string) []string {
	out := ss[:0:0]
	for _, v := range ss {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// AddTaskToCycle links task and cycle bidirectionally as a single logical
// unit: both sides are written; if the second write fails, the first is
// rolled back and LINK_INCONSISTENT is reported (spec §4.8/§5).
func (a *Adapter) AddTaskToCycle(ctx context.Context, cycleID, taskID string) error {
	const op = "Backlog.AddTaskToCycle"

	cycleRec, err := a.cycles.Get(ctx, cycleID)
	if err != nil {
		if store.IsNotFound(err) {
			return gitgoverr.New(gitgoverr.KindCycleNotFound, op, cycleID)
		}
		return err
	}
	taskRec, err := a.tasks.Get(ctx, taskID)
	if err != nil {
		if store.IsNotFound(err) {
			return gitgoverr.New(gitgoverr.KindTaskNotFound, op, taskID)
		}
		return err
	}

	originalCycle := *cycleRec
	cycleRec.Payload.TaskIDs = appendUnique(cycleRec.Payload.TaskIDs, taskID)
	if err := a.cycles.Put(ctx, cycleID, cycleRec); err != nil {
		return err
	}

	taskRec.Payload.CycleIDs = appendUnique(taskRec.Payload.CycleIDs, cycleID)
	if err := a.tasks.Put(ctx, taskID, taskRec); err != nil {
		// Roll back the first-written side.
		if rbErr := a.cycles.Put(ctx, cycleID, &originalCycle); rbErr != nil {
			a.logger.Error("backlog: rollback after partial link failure also failed", "cycleId", cycleID, "err", rbErr)
		}
		return gitgoverr.Wrap(gitgoverr.KindLinkInconsistent, op, "task side failed to persist, cycle side rolled back", err)
	}
	return nil
}

// RemoveTasksFromCycle unlinks a set of tasks from cycle, same two-phase
// write/rollback discipline as AddTaskToCycle.
func (a *Adapter) RemoveTasksFromCycle(ctx context.Context, cycleID string, taskIDs []string) error {
	const op = "Backlog.RemoveTasksFromCycle"

	cycleRec, err := a.cycles.Get(ctx, cycleID)
	if err != nil {
		if store.IsNotFound(err) {
			return gitgoverr.New(gitgoverr.KindCycleNotFound, op, cycleID)
		}
		return err
	}
	originalCycle := *cycleRec
	remaining := cycleRec.Payload.TaskIDs
	for _, id := range taskIDs {
		remaining = removeStr(remaining, id)
	}
	cycleRec.Payload.TaskIDs = remaining
	if err := a.cycles.Put(ctx, cycleID, cycleRec); err != nil {
		return err
	}

	var writtenTasks []contracts.TaskRecord
	for _, taskID := range taskIDs {
		taskRec, err := a.tasks.Get(ctx, taskID)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			a.rollbackCycle(ctx, cycleID, originalCycle, writtenTasks)
			return gitgoverr.Wrap(gitgoverr.KindLinkInconsistent, op, "task lookup failed", err)
		}
		before := *taskRec
		taskRec.Payload.CycleIDs = removeStr(taskRec.Payload.CycleIDs, cycleID)
		if err := a.tasks.Put(ctx, taskID, taskRec); err != nil {
			a.rollbackCycle(ctx, cycleID, originalCycle, writtenTasks)
			return gitgoverr.Wrap(gitgoverr.KindLinkInconsistent, op, "task side failed to persist", err)
		}
		writtenTasks = append(writtenTasks, before)
	}
	return nil
}

func (a *Adapter) rollbackCycle(ctx context.Context, cycleID string, original contracts.CycleRecord, writtenTasks []contracts.TaskRecord) {
	if err := a.cycles.Put(ctx, cycleID, &original); err != nil {
		a.logger.Error("backlog: rollback cycle side failed", "cycleId", cycleID, "err", err)
	}
	for _, t := range writtenTasks {
		tCopy := t
		if err := a.tasks.Put(ctx, t.Payload.ID, &tCopy); err != nil {
			a.logger.Error("backlog: rollback task side failed", "taskId", t.Payload.ID, "err", err)
		}
	}
}

// MoveTasksBetweenCycles removes taskIDs from fromCycleID and adds them to
// toCycleID; if the add phase fails, the remove is rolled back.
func (a *Adapter) MoveTasksBetweenCycles(ctx context.Context, fromCycleID, toCycleID string, taskIDs []string) error {
	const op = "Backlog.MoveTasksBetweenCycles"

	if err := a.RemoveTasksFromCycle(ctx, fromCycleID, taskIDs); err != nil {
		return err
	}
	for i, taskID := range taskIDs {
		if err := a.AddTaskToCycle(ctx, toCycleID, taskID); err != nil {
			// Roll the move back: unlink the tasks already added to the
			// target, then restore every task's from-side link.
			if rbErr := a.RemoveTasksFromCycle(ctx, toCycleID, taskIDs[:i]); rbErr != nil {
				a.logger.Error("backlog: move rollback failed, link state may be inconsistent",
					"toCycleId", toCycleID, "err", rbErr)
			}
			for _, id := range taskIDs {
				if rbErr := a.AddTaskToCycle(ctx, fromCycleID, id); rbErr != nil {
					a.logger.Error("backlog: move rollback failed, link state may be inconsistent",
						"taskId", id, "fromCycleId", fromCycleID, "err", rbErr)
				}
			}
			return gitgoverr.Wrap(gitgoverr.KindLinkInconsistent, op, "add-to-target failed mid-move", err)
		}
	}
	return nil
}

// GetTasksAssignedToActor joins tasks with open "assignment" feedbacks
// whose assignee == actorID, de-duplicated by task id.
func (a *Adapter) GetTasksAssignedToActor(ctx context.Context, actorID string) ([]contracts.TaskRecord, error) {
	if a.feedbackSt == nil {
		return nil, nil
	}
	ids, err := a.feedbackSt.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []contracts.TaskRecord
	for _, id := range ids {
		f, err := a.feedbackSt.Get(ctx, id)
		if err != nil {
			continue
		}
		if f.Payload.Type != contracts.FeedbackTypeAssignment || f.Payload.Status != contracts.FeedbackStatusOpen {
			continue
		}
		if f.Payload.Assignee != actorID || f.Payload.EntityType != contracts.FeedbackEntityTask {
			continue
		}
		if _, dup := seen[f.Payload.EntityID]; dup {
			continue
		}
		task, err := a.tasks.Get(ctx, f.Payload.EntityID)
		if err != nil {
			continue
		}
		seen[f.Payload.EntityID] = struct{}{}
		out = append(out, *task)
	}
	return out, nil
}
