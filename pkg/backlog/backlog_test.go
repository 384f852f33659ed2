package backlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/eventbus"
	"github.com/gitgovernance/core/pkg/feedback"
	"github.com/gitgovernance/core/pkg/identity"
	"github.com/gitgovernance/core/pkg/keyprovider"
	"github.com/gitgovernance/core/pkg/methodology"
	"github.com/gitgovernance/core/pkg/metrics"
	"github.com/gitgovernance/core/pkg/session"
	"github.com/gitgovernance/core/pkg/store"
)

type fixtures struct {
	ctx      context.Context
	bus      *eventbus.Bus
	ident    *identity.Adapter
	fb       *feedback.Adapter
	backlog  *Adapter
	tasks    store.Store[contracts.TaskRecord]
	cycles   store.Store[contracts.CycleRecord]
	feedbkSt store.Store[contracts.FeedbackRecord]

	author   string
	approver string
	executor string
}

func newFixtures(t *testing.T) *fixtures {
	t.Helper()
	ctx := context.Background()
	bus := eventbus.New(nil)
	ident := identity.New(store.NewMemory[contracts.ActorRecord](), keyprovider.NewMemory(), session.NewMemory(), bus, nil)

	tasks := store.NewMemory[contracts.TaskRecord]()
	cycles := store.NewMemory[contracts.CycleRecord]()
	feedbkSt := store.NewMemory[contracts.FeedbackRecord]()

	fb := feedback.New(feedbkSt, ident, bus, nil)
	met := metrics.New(tasks, feedbkSt, nil, nil, nil, nil)
	workflow, err := methodology.CreateDefault(nil)
	require.NoError(t, err)

	system, err := ident.CreateActor(ctx, contracts.ActorPayload{Type: contracts.ActorTypeAgent, DisplayName: "gitgov-system", Roles: []string{"system"}})
	require.NoError(t, err)
	require.Equal(t, systemActorID, system.Payload.ID)

	b := New(tasks, cycles, feedbkSt, fb, ident, workflow, met, bus, session.NewMemory(), DefaultConfig(), nil, nil)

	author, err := ident.CreateActor(ctx, contracts.ActorPayload{Type: contracts.ActorTypeHuman, DisplayName: "Alice Author", Roles: []string{contracts.RoleAuthor}})
	require.NoError(t, err)
	approver, err := ident.CreateActor(ctx, contracts.ActorPayload{Type: contracts.ActorTypeHuman, DisplayName: "Bob Approver", Roles: []string{"approver:product"}})
	require.NoError(t, err)
	executor, err := ident.CreateActor(ctx, contracts.ActorPayload{Type: contracts.ActorTypeHuman, DisplayName: "Carol Executor", Roles: []string{contracts.RoleExecutor}})
	require.NoError(t, err)

	return &fixtures{
		ctx: ctx, bus: bus, ident: ident, fb: fb, backlog: b,
		tasks: tasks, cycles: cycles, feedbkSt: feedbkSt,
		author: author.Payload.ID, approver: approver.Payload.ID, executor: executor.Payload.ID,
	}
}

func (f *fixtures) createTask(t *testing.T, title string) contracts.TaskRecord {
	t.Helper()
	rec, err := f.backlog.CreateTask(f.ctx, contracts.TaskPayload{Title: title}, f.author)
	require.NoError(t, err)
	return rec
}

func TestFullKanbanLifecycle_RoleGatedTransitions(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "ship the feature")
	require.Equal(t, contracts.TaskStatusDraft, task.Payload.Status)

	_, err := f.backlog.SubmitTask(f.ctx, task.Payload.ID, f.author)
	require.NoError(t, err)

	rec2, err := f.backlog.ApproveTask(f.ctx, task.Payload.ID, f.approver)
	require.NoError(t, err)
	require.Equal(t, contracts.TaskStatusReady, rec2.Payload.Status)

	rec3, err := f.backlog.ActivateTask(f.ctx, task.Payload.ID, f.executor)
	require.NoError(t, err)
	require.Equal(t, contracts.TaskStatusActive, rec3.Payload.Status)

	rec4, err := f.backlog.CompleteTask(f.ctx, task.Payload.ID, f.executor)
	require.NoError(t, err)
	require.Equal(t, contracts.TaskStatusDone, rec4.Payload.Status)
}

func TestApproveTask_RejectsWrongRole(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "needs review")
	_, err := f.backlog.SubmitTask(f.ctx, task.Payload.ID, f.author)
	require.NoError(t, err)

	_, err = f.backlog.ApproveTask(f.ctx, task.Payload.ID, f.executor)
	require.Error(t, err)
}

func TestActivateTask_IllegalFromDraft(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "too early")

	_, err := f.backlog.ActivateTask(f.ctx, task.Payload.ID, f.executor)
	require.Error(t, err)
}

func TestBlockingFeedback_PausesActiveTask(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "in flight work")
	_, err := f.backlog.SubmitTask(f.ctx, task.Payload.ID, f.author)
	require.NoError(t, err)
	_, err = f.backlog.ApproveTask(f.ctx, task.Payload.ID, f.approver)
	require.NoError(t, err)
	_, err = f.backlog.ActivateTask(f.ctx, task.Payload.ID, f.executor)
	require.NoError(t, err)

	_, err = f.fb.Create(f.ctx, contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask,
		EntityID:   task.Payload.ID,
		Type:       contracts.FeedbackTypeBlocking,
		Content:    "found a blocker",
	}, "found a blocker", f.executor)
	require.NoError(t, err)
	f.bus.WaitForIdle()

	got, err := f.backlog.GetTask(f.ctx, task.Payload.ID)
	require.NoError(t, err)
	require.Equal(t, contracts.TaskStatusPaused, got.Payload.Status)
}

func TestResolvingLastBlocker_ResumesTask(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "in flight work 2")
	_, err := f.backlog.SubmitTask(f.ctx, task.Payload.ID, f.author)
	require.NoError(t, err)
	_, err = f.backlog.ApproveTask(f.ctx, task.Payload.ID, f.approver)
	require.NoError(t, err)
	_, err = f.backlog.ActivateTask(f.ctx, task.Payload.ID, f.executor)
	require.NoError(t, err)

	blocker, err := f.fb.Create(f.ctx, contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask,
		EntityID:   task.Payload.ID,
		Type:       contracts.FeedbackTypeBlocking,
		Content:    "blocker one",
	}, "blocker one", f.executor)
	require.NoError(t, err)
	f.bus.WaitForIdle()

	got, err := f.backlog.GetTask(f.ctx, task.Payload.ID)
	require.NoError(t, err)
	require.Equal(t, contracts.TaskStatusPaused, got.Payload.Status)

	_, err = f.fb.Resolve(f.ctx, blocker.Payload.ID, f.executor, "fixed it")
	require.NoError(t, err)
	f.bus.WaitForIdle()

	got, err = f.backlog.GetTask(f.ctx, task.Payload.ID)
	require.NoError(t, err)
	require.Equal(t, contracts.TaskStatusActive, got.Payload.Status)
}

func TestMultipleBlockers_StaysPausedUntilAllResolved(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "double trouble")
	_, err := f.backlog.SubmitTask(f.ctx, task.Payload.ID, f.author)
	require.NoError(t, err)
	_, err = f.backlog.ApproveTask(f.ctx, task.Payload.ID, f.approver)
	require.NoError(t, err)
	_, err = f.backlog.ActivateTask(f.ctx, task.Payload.ID, f.executor)
	require.NoError(t, err)

	b1, err := f.fb.Create(f.ctx, contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask, EntityID: task.Payload.ID,
		Type: contracts.FeedbackTypeBlocking, Content: "blocker A",
	}, "blocker A", f.executor)
	require.NoError(t, err)
	f.bus.WaitForIdle()

	_, err = f.fb.Create(f.ctx, contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask, EntityID: task.Payload.ID,
		Type: contracts.FeedbackTypeBlocking, Content: "blocker B",
	}, "blocker B", f.executor)
	require.NoError(t, err)
	f.bus.WaitForIdle()

	_, err = f.fb.Resolve(f.ctx, b1.Payload.ID, f.executor, "fixed A")
	require.NoError(t, err)
	f.bus.WaitForIdle()

	got, err := f.backlog.GetTask(f.ctx, task.Payload.ID)
	require.NoError(t, err)
	require.Equal(t, contracts.TaskStatusPaused, got.Payload.Status, "should remain paused while blocker B is still open")
}

func TestAddTaskToCycle_MaintainsBidirectionalLink(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "cycle-bound task")
	cycle, err := f.backlog.CreateCycle(f.ctx, contracts.CyclePayload{Title: "Sprint 1"}, f.author)
	require.NoError(t, err)

	err = f.backlog.AddTaskToCycle(f.ctx, cycle.Payload.ID, task.Payload.ID)
	require.NoError(t, err)

	gotTask, err := f.backlog.GetTask(f.ctx, task.Payload.ID)
	require.NoError(t, err)
	require.Contains(t, gotTask.Payload.CycleIDs, cycle.Payload.ID)

	gotCycle, err := f.backlog.GetCycle(f.ctx, cycle.Payload.ID)
	require.NoError(t, err)
	require.Contains(t, gotCycle.Payload.TaskIDs, task.Payload.ID)
}

func TestMoveTasksBetweenCycles_UpdatesBothSides(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "movable task")
	cycleA, err := f.backlog.CreateCycle(f.ctx, contracts.CyclePayload{Title: "Sprint A"}, f.author)
	require.NoError(t, err)
	cycleB, err := f.backlog.CreateCycle(f.ctx, contracts.CyclePayload{Title: "Sprint B"}, f.author)
	require.NoError(t, err)

	require.NoError(t, f.backlog.AddTaskToCycle(f.ctx, cycleA.Payload.ID, task.Payload.ID))
	require.NoError(t, f.backlog.MoveTasksBetweenCycles(f.ctx, cycleA.Payload.ID, cycleB.Payload.ID, []string{task.Payload.ID}))

	gotA, err := f.backlog.GetCycle(f.ctx, cycleA.Payload.ID)
	require.NoError(t, err)
	require.NotContains(t, gotA.Payload.TaskIDs, task.Payload.ID)

	gotB, err := f.backlog.GetCycle(f.ctx, cycleB.Payload.ID)
	require.NoError(t, err)
	require.Contains(t, gotB.Payload.TaskIDs, task.Payload.ID)

	gotTask, err := f.backlog.GetTask(f.ctx, task.Payload.ID)
	require.NoError(t, err)
	require.Contains(t, gotTask.Payload.CycleIDs, cycleB.Payload.ID)
}

func TestGetTasksAssignedToActor_ReturnsOnlyAssigneesTasks(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "assigned task")

	_, err := f.fb.Create(f.ctx, contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask, EntityID: task.Payload.ID,
		Type: contracts.FeedbackTypeAssignment, Content: "please pick this up", Assignee: f.executor,
	}, "please pick this up", f.author)
	require.NoError(t, err)

	assigned, err := f.backlog.GetTasksAssignedToActor(f.ctx, f.executor)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	require.Equal(t, task.Payload.ID, assigned[0].Payload.ID)

	none, err := f.backlog.GetTasksAssignedToActor(f.ctx, f.approver)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestAudit_FlagsBrokenReciprocalLink(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "half-linked task")
	cycle, err := f.backlog.CreateCycle(f.ctx, contracts.CyclePayload{Title: "Sprint broken"}, f.author)
	require.NoError(t, err)

	// Manually break the invariant: cycle points at the task, task doesn't
	// point back, simulating a corrupted on-disk state Audit should catch.
	cycleRec, err := f.cycles.Get(f.ctx, cycle.Payload.ID)
	require.NoError(t, err)
	cycleRec.Payload.TaskIDs = append(cycleRec.Payload.TaskIDs, task.Payload.ID)
	require.NoError(t, f.cycles.Put(f.ctx, cycle.Payload.ID, cycleRec))

	problems, err := f.backlog.Audit(f.ctx)
	require.NoError(t, err)
	require.NotEmpty(t, problems)
}

func TestDailyTick_CreatesSuggestionForUnhealthyTask(t *testing.T) {
	f := newFixtures(t)
	task := f.createTask(t, "stale draft")

	f.bus.Publish(contracts.Event{Type: contracts.EventSystemDailyTick, Source: "scheduler", Payload: map[string]any{}})
	f.bus.WaitForIdle()

	all, err := f.fb.GetFeedbackByEntity(f.ctx, task.Payload.ID)
	require.NoError(t, err)
	found := false
	for _, fb := range all {
		if fb.Payload.Type == contracts.FeedbackTypeSuggestion {
			found = true
		}
	}
	require.True(t, found, "draft task with health below threshold should get a suggestion feedback")
}
