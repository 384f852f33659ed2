package backlog

import (
	"context"
	"fmt"

	"github.com/gitgovernance/core/pkg/metrics"
)

// GetSystemStatus delegates to Metrics.
func (a *Adapter) GetSystemStatus(ctx context.Context) (metrics.SystemStatus, error) {
	return a.metrics.GetSystemStatus(ctx)
}

// GetTaskHealth delegates to Metrics.
func (a *Adapter) GetTaskHealth(ctx context.Context, taskID string) (metrics.TaskHealth, error) {
	return a.metrics.GetTaskHealth(ctx, taskID)
}

// Lint delegates to Metrics' narrow hygiene pass.
func (a *Adapter) Lint(ctx context.Context) ([]string, error) {
	return a.metrics.Lint(ctx)
}

// Audit runs Lint plus the bidirectional-link consistency check that only
// Backlog can perform, since only it holds both the Task and Cycle stores.
func (a *Adapter) Audit(ctx context.Context) ([]string, error) {
	problems, err := a.metrics.Lint(ctx)
	if err != nil {
		return nil, err
	}

	cycleIDs, err := a.cycles.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, cycleID := range cycleIDs {
		cycle, err := a.cycles.Get(ctx, cycleID)
		if err != nil {
			continue
		}
		for _, taskID := range cycle.Payload.TaskIDs {
			task, err := a.tasks.Get(ctx, taskID)
			if err != nil {
				problems = append(problems, fmt.Sprintf("cycle %s references missing task %s", cycleID, taskID))
				continue
			}
			if !containsStr(task.Payload.CycleIDs, cycleID) {
				problems = append(problems, fmt.Sprintf("link inconsistency: cycle %s -> task %s is not reciprocated", cycleID, taskID))
			}
		}
	}

	taskIDs, err := a.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, taskID := range taskIDs {
		task, err := a.tasks.Get(ctx, taskID)
		if err != nil {
			continue
		}
		for _, cycleID := range task.Payload.CycleIDs {
			cycle, err := a.cycles.Get(ctx, cycleID)
			if err != nil {
				problems = append(problems, fmt.Sprintf("task %s references missing cycle %s", taskID, cycleID))
				continue
			}
			if !containsStr(cycle.Payload.TaskIDs, taskID) {
				problems = append(problems, fmt.Sprintf("link inconsistency: task %s -> cycle %s is not reciprocated", taskID, cycleID))
			}
		}
	}

	return problems, nil
}
