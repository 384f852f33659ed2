// Package metrics computes pure aggregations over Task/Cycle/Feedback/
// Execution/Changelog/Agent records. No writes, no events: every exported
// function is a deterministic function of its inputs (and, where noted, a
// fixed `now`).
package metrics

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/gitgoverr"
	"github.com/gitgovernance/core/pkg/records"
	"github.com/gitgovernance/core/pkg/store"
)

// healthWeight is the per-status score used by calculateHealth, per spec
// §4.9's Tier 1 weighted sum.
var healthWeight = map[contracts.TaskStatus]int{
	contracts.TaskStatusDone:      100,
	contracts.TaskStatusArchived:  100,
	contracts.TaskStatusActive:    80,
	contracts.TaskStatusReady:     60,
	contracts.TaskStatusReview:    40,
	contracts.TaskStatusDraft:     20,
	contracts.TaskStatusPaused:    0,
	contracts.TaskStatusDiscarded: 0,
}

const daySeconds = 86400

// Adapter is the read-only facade over the record stores. Stores beyond
// tasks/feedback are optional: a nil store degrades the corresponding
// metric to its zero value rather than erroring, per spec §4.9's "returns
// zeros when optional stores absent".
type Adapter struct {
	tasks      store.Store[contracts.TaskRecord]
	feedback   store.Store[contracts.FeedbackRecord]
	executions store.Store[contracts.ExecutionRecord]
	agents     store.Store[contracts.AgentRecord]
	now        func() time.Time
	logger     *slog.Logger
}

// HealthThresholds gates Backlog's daily-tick health audit; Metrics itself
// only reports the raw numbers, it doesn't apply the thresholds.
type HealthThresholds struct {
	TaskMinScore   int
	MaxDaysInStage float64
	SystemMinScore int
}

func New(
	tasks store.Store[contracts.TaskRecord],
	feedback store.Store[contracts.FeedbackRecord],
	executions store.Store[contracts.ExecutionRecord],
	agents store.Store[contracts.AgentRecord],
	now func() time.Time,
	logger *slog.Logger,
) *Adapter {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{tasks: tasks, feedback: feedback, executions: executions, agents: agents, now: now, logger: logger}
}

func (a *Adapter) loadAllTasks(ctx context.Context) ([]contracts.TaskRecord, error) {
	if a.tasks == nil {
		return nil, nil
	}
	ids, err := a.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contracts.TaskRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := a.tasks.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (a *Adapter) loadAllFeedback(ctx context.Context) ([]contracts.FeedbackRecord, error) {
	if a.feedback == nil {
		return nil, nil
	}
	ids, err := a.feedback.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contracts.FeedbackRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := a.feedback.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (a *Adapter) loadAllExecutions(ctx context.Context) ([]contracts.ExecutionRecord, error) {
	if a.executions == nil {
		return nil, nil
	}
	ids, err := a.executions.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contracts.ExecutionRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := a.executions.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (a *Adapter) feedbackForTask(feedbacks []contracts.FeedbackRecord, taskID string) []contracts.FeedbackRecord {
	var out []contracts.FeedbackRecord
	for _, f := range feedbacks {
		if f.Payload.EntityType == contracts.FeedbackEntityTask && f.Payload.EntityID == taskID {
			out = append(out, f)
		}
	}
	return out
}

// calculateTimeInCurrentStage returns (now - idTimestamp(task)) / 86400,
// clamped to >= 0. "Current stage" approximates to "since creation" absent
// a separate per-transition timestamp in the record model.
func calculateTimeInCurrentStage(task contracts.TaskPayload, now time.Time) float64 {
	ts, err := records.IDTimestamp(task.ID)
	if err != nil {
		return 0
	}
	days := float64(now.Unix()-ts) / daySeconds
	if days < 0 {
		return 0
	}
	return days
}

// calculateStalenessIndex returns the max staleness (days since last
// execution) across tasks with at least one execution; 0 if executions
// aren't tracked or none exist.
func calculateStalenessIndex(tasks []contracts.TaskRecord, executions []contracts.ExecutionRecord, now time.Time) float64 {
	if len(executions) == 0 {
		return 0
	}
	lastByTask := map[string]int64{}
	for _, e := range executions {
		ts, err := records.IDTimestamp(e.Payload.ID)
		if err != nil {
			continue
		}
		if ts > lastByTask[e.Payload.TaskID] {
			lastByTask[e.Payload.TaskID] = ts
		}
	}
	max := 0.0
	for _, t := range tasks {
		last, ok := lastByTask[t.Payload.ID]
		if !ok {
			continue
		}
		days := float64(now.Unix()-last) / daySeconds
		if days > max {
			max = days
		}
	}
	return max
}

// calculateBlockingFeedbackAge returns the max age in days of open blocking
// feedbacks.
func calculateBlockingFeedbackAge(feedbacks []contracts.FeedbackRecord, now time.Time) float64 {
	max := 0.0
	for _, f := range feedbacks {
		if f.Payload.Type != contracts.FeedbackTypeBlocking || f.Payload.Status != contracts.FeedbackStatusOpen {
			continue
		}
		ts, err := records.IDTimestamp(f.Payload.ID)
		if err != nil {
			continue
		}
		days := float64(now.Unix()-ts) / daySeconds
		if days > max {
			max = days
		}
	}
	return max
}

// calculateHealth is the weighted-status 0..100 score across tasks.
func calculateHealth(tasks []contracts.TaskRecord) int {
	if len(tasks) == 0 {
		return 0
	}
	sum := 0
	for _, t := range tasks {
		sum += healthWeight[t.Payload.Status]
	}
	return int(math.Round(float64(sum) / (float64(len(tasks)) * 100) * 100))
}

// calculateBacklogDistribution returns status -> percent across the valid
// status set only; unknown statuses are ignored (can't occur given
// ValidateTaskPayload, but Metrics doesn't assume callers pre-validated).
func calculateBacklogDistribution(tasks []contracts.TaskRecord) map[string]float64 {
	out := make(map[string]float64, len(contracts.AllTaskStatuses))
	if len(tasks) == 0 {
		return out
	}
	counts := map[contracts.TaskStatus]int{}
	valid := 0
	for _, t := range tasks {
		isValid := false
		for _, s := range contracts.AllTaskStatuses {
			if s == t.Payload.Status {
				isValid = true
				break
			}
		}
		if !isValid {
			continue
		}
		counts[t.Payload.Status]++
		valid++
	}
	if valid == 0 {
		return out
	}
	for _, s := range contracts.AllTaskStatuses {
		if counts[s] == 0 {
			continue
		}
		out[string(s)] = math.Round(float64(counts[s])/float64(valid)*10000) / 100
	}
	return out
}

// calculateTasksCreatedToday counts tasks whose id-timestamp falls within
// the last 86400s of now.
func calculateTasksCreatedToday(tasks []contracts.TaskRecord, now time.Time) int {
	n := 0
	cutoff := now.Unix() - daySeconds
	for _, t := range tasks {
		ts, err := records.IDTimestamp(t.Payload.ID)
		if err != nil {
			continue
		}
		if ts >= cutoff {
			n++
		}
	}
	return n
}

// calculateThroughput is the count of tasks that reached done/archived with
// an id-timestamp in the last 7 days. The record model has no per-
// transition timestamp, so this approximates "done in the last 7d" by the
// task's creation time, same limitation as calculateTimeInCurrentStage.
func calculateThroughput(tasks []contracts.TaskRecord, now time.Time) int {
	n := 0
	cutoff := now.Unix() - 7*daySeconds
	for _, t := range tasks {
		if t.Payload.Status != contracts.TaskStatusDone && t.Payload.Status != contracts.TaskStatusArchived {
			continue
		}
		ts, err := records.IDTimestamp(t.Payload.ID)
		if err != nil {
			continue
		}
		if ts >= cutoff {
			n++
		}
	}
	return n
}

// calculateLeadTime is the average age (days) of done/archived tasks.
func calculateLeadTime(tasks []contracts.TaskRecord, now time.Time) float64 {
	var total float64
	n := 0
	for _, t := range tasks {
		if t.Payload.Status != contracts.TaskStatusDone && t.Payload.Status != contracts.TaskStatusArchived {
			continue
		}
		total += calculateTimeInCurrentStage(t.Payload, now)
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// calculateCycleTime approximates cycle time as 0.3x lead time, per spec
// §4.9 (an explicit simplification pending real per-transition timestamps).
func calculateCycleTime(tasks []contracts.TaskRecord, now time.Time) float64 {
	return 0.3 * calculateLeadTime(tasks, now)
}

// calculateActiveAgents counts distinct actor ids with an execution in the
// last 24h.
func calculateActiveAgents(executions []contracts.ExecutionRecord, now time.Time) int {
	cutoff := now.Unix() - daySeconds
	seen := map[string]struct{}{}
	for _, e := range executions {
		ts, err := records.IDTimestamp(e.Payload.ID)
		if err != nil {
			continue
		}
		if ts >= cutoff {
			seen[e.Payload.ActorID] = struct{}{}
		}
	}
	return len(seen)
}

// SystemStatus is the return shape of GetSystemStatus.
type SystemStatus struct {
	HealthScore          int                `json:"healthScore"`
	BacklogDistribution  map[string]float64 `json:"backlogDistribution"`
	TasksCreatedToday    int                `json:"tasksCreatedToday"`
	StalenessIndexDays   float64            `json:"stalenessIndexDays"`
	BlockingFeedbackAgeDays float64         `json:"blockingFeedbackAgeDays"`
	TaskCount            int                `json:"taskCount"`
}

// GetSystemStatus aggregates the Tier 1 metrics across the whole backlog.
func (a *Adapter) GetSystemStatus(ctx context.Context) (SystemStatus, error) {
	tasks, err := a.loadAllTasks(ctx)
	if err != nil {
		return SystemStatus{}, err
	}
	feedbacks, err := a.loadAllFeedback(ctx)
	if err != nil {
		return SystemStatus{}, err
	}
	executions, err := a.loadAllExecutions(ctx)
	if err != nil {
		return SystemStatus{}, err
	}
	now := a.now()
	return SystemStatus{
		HealthScore:             calculateHealth(tasks),
		BacklogDistribution:     calculateBacklogDistribution(tasks),
		TasksCreatedToday:       calculateTasksCreatedToday(tasks, now),
		StalenessIndexDays:      calculateStalenessIndex(tasks, executions, now),
		BlockingFeedbackAgeDays: calculateBlockingFeedbackAge(feedbacks, now),
		TaskCount:               len(tasks),
	}, nil
}

// TaskHealth is the return shape of GetTaskHealth.
type TaskHealth struct {
	TaskID              string  `json:"taskId"`
	HealthScore         int     `json:"healthScore"`
	TimeInCurrentStage  float64 `json:"timeInCurrentStageDays"`
	BlockingFeedbacks   int     `json:"blockingFeedbacks"`
}

// GetTaskHealth reports a single task's health; throws TASK_NOT_FOUND if
// the task doesn't exist.
func (a *Adapter) GetTaskHealth(ctx context.Context, taskID string) (TaskHealth, error) {
	const op = "Metrics.GetTaskHealth"
	if a.tasks == nil {
		return TaskHealth{}, gitgoverr.New(gitgoverr.KindTaskNotFound, op, "no task store configured")
	}
	rec, err := a.tasks.Get(ctx, taskID)
	if err != nil {
		if store.IsNotFound(err) {
			return TaskHealth{}, gitgoverr.New(gitgoverr.KindTaskNotFound, op, taskID)
		}
		return TaskHealth{}, err
	}
	feedbacks, err := a.loadAllFeedback(ctx)
	if err != nil {
		return TaskHealth{}, err
	}
	// A resolution is a separate record, so an original stays "open";
	// originals that some record resolves are not counted as blocking.
	resolved := make(map[string]struct{})
	for _, f := range feedbacks {
		if f.Payload.ResolvesFeedbackID != "" {
			resolved[f.Payload.ResolvesFeedbackID] = struct{}{}
		}
	}
	blocking := 0
	for _, f := range a.feedbackForTask(feedbacks, taskID) {
		if _, done := resolved[f.Payload.ID]; done {
			continue
		}
		if f.Payload.Type == contracts.FeedbackTypeBlocking && f.Payload.Status == contracts.FeedbackStatusOpen {
			blocking++
		}
	}
	now := a.now()
	return TaskHealth{
		TaskID:             taskID,
		HealthScore:        calculateHealth([]contracts.TaskRecord{*rec}),
		TimeInCurrentStage: calculateTimeInCurrentStage(rec.Payload, now),
		BlockingFeedbacks:  blocking,
	}, nil
}

// ProductivityMetrics is the Tier 2 return shape.
type ProductivityMetrics struct {
	Throughput  int     `json:"throughput"`
	LeadTimeDays float64 `json:"leadTimeDays"`
	CycleTimeDays float64 `json:"cycleTimeDays"`
}

// GetProductivityMetrics reports Tier 2 throughput/lead-time/cycle-time;
// zeros if the task store is absent.
func (a *Adapter) GetProductivityMetrics(ctx context.Context) (ProductivityMetrics, error) {
	tasks, err := a.loadAllTasks(ctx)
	if err != nil {
		return ProductivityMetrics{}, err
	}
	now := a.now()
	return ProductivityMetrics{
		Throughput:    calculateThroughput(tasks, now),
		LeadTimeDays:  calculateLeadTime(tasks, now),
		CycleTimeDays: calculateCycleTime(tasks, now),
	}, nil
}

// CollaborationMetrics is the Tier 2 return shape for agent activity.
type CollaborationMetrics struct {
	ActiveAgents int `json:"activeAgents"`
}

// GetCollaborationMetrics reports Tier 2 agent-activity; zero if the
// executions store is absent.
func (a *Adapter) GetCollaborationMetrics(ctx context.Context) (CollaborationMetrics, error) {
	executions, err := a.loadAllExecutions(ctx)
	if err != nil {
		return CollaborationMetrics{}, err
	}
	return CollaborationMetrics{ActiveAgents: calculateActiveAgents(executions, a.now())}, nil
}

// Lint reports tasks with a missing title; it does not check health score,
// staleness or an empty backlog. Kept intentionally narrow per spec §4.9 "lint" vs "audit"
// split — audit additionally cross-checks link consistency, which only
// Backlog (holding both Task and Cycle stores) can do.
func (a *Adapter) Lint(ctx context.Context) ([]string, error) {
	tasks, err := a.loadAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	var problems []string
	for _, t := range tasks {
		if t.Payload.Title == "" {
			problems = append(problems, t.Payload.ID+": missing title")
		}
	}
	sort.Strings(problems)
	return problems, nil
}
