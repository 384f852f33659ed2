package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/gitgoverr"
	"github.com/gitgovernance/core/pkg/store"
)

func fixedNow() time.Time { return time.Unix(1_000_000_000, 0) }

func putTask(t *testing.T, s store.Store[contracts.TaskRecord], idTS int64, status contracts.TaskStatus) {
	t.Helper()
	id := taskIDAt(idTS)
	rec := contracts.TaskRecord{Payload: contracts.TaskPayload{ID: id, Title: "t", Status: status}}
	require.NoError(t, s.Put(context.Background(), id, &rec))
}

func taskIDAt(ts int64) string {
	return fmt.Sprintf("%d-task-x", ts)
}

func TestGetSystemStatus_EmptyStoresReturnZeros(t *testing.T) {
	a := New(store.NewMemory[contracts.TaskRecord](), store.NewMemory[contracts.FeedbackRecord](), nil, nil, fixedNow, nil)
	status, err := a.GetSystemStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, status.HealthScore)
	require.Equal(t, 0, status.TaskCount)
	require.Empty(t, status.BacklogDistribution)
}

func TestCalculateHealth_WeightedAverage(t *testing.T) {
	tasks := store.NewMemory[contracts.TaskRecord]()
	now := fixedNow()
	putTask(t, tasks, now.Unix()-100, contracts.TaskStatusActive) // 80
	putTask(t, tasks, now.Unix()-100, contracts.TaskStatusDone)   // 100
	a := New(tasks, nil, nil, nil, fixedNow, nil)

	status, err := a.GetSystemStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 90, status.HealthScore)
}

func TestCalculateBacklogDistribution_PercentagesOverValidOnly(t *testing.T) {
	tasks := store.NewMemory[contracts.TaskRecord]()
	now := fixedNow()
	putTask(t, tasks, now.Unix()-10, contracts.TaskStatusDraft)
	putTask(t, tasks, now.Unix()-10, contracts.TaskStatusDraft)
	putTask(t, tasks, now.Unix()-10, contracts.TaskStatusActive)
	a := New(tasks, nil, nil, nil, fixedNow, nil)

	status, err := a.GetSystemStatus(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 66.67, status.BacklogDistribution["draft"], 0.01)
	require.InDelta(t, 33.33, status.BacklogDistribution["active"], 0.01)
}

func TestCalculateTasksCreatedToday_WithinWindow(t *testing.T) {
	tasks := store.NewMemory[contracts.TaskRecord]()
	now := fixedNow()
	putTask(t, tasks, now.Unix()-100, contracts.TaskStatusDraft)  // today
	putTask(t, tasks, now.Unix()-200000, contracts.TaskStatusDraft) // stale
	a := New(tasks, nil, nil, nil, fixedNow, nil)

	status, err := a.GetSystemStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, status.TasksCreatedToday)
}

func TestGetTaskHealth_NotFound(t *testing.T) {
	a := New(store.NewMemory[contracts.TaskRecord](), nil, nil, nil, fixedNow, nil)
	_, err := a.GetTaskHealth(context.Background(), "does-not-exist")
	require.True(t, gitgoverr.Is(err, gitgoverr.KindTaskNotFound))
}

func TestGetTaskHealth_CountsOpenBlockingFeedback(t *testing.T) {
	tasks := store.NewMemory[contracts.TaskRecord]()
	feedbacks := store.NewMemory[contracts.FeedbackRecord]()
	now := fixedNow()
	id := taskIDAt(now.Unix() - 10)
	putTask(t, tasks, now.Unix()-10, contracts.TaskStatusActive)

	fID := "f1"
	frec := contracts.FeedbackRecord{Payload: contracts.FeedbackPayload{
		ID: fID, EntityType: contracts.FeedbackEntityTask, EntityID: id,
		Type: contracts.FeedbackTypeBlocking, Status: contracts.FeedbackStatusOpen,
	}}
	require.NoError(t, feedbacks.Put(context.Background(), fID, &frec))

	a := New(tasks, feedbacks, nil, nil, fixedNow, nil)
	health, err := a.GetTaskHealth(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, 1, health.BlockingFeedbacks)
}

func TestGetProductivityMetrics_ThroughputCountsRecentDone(t *testing.T) {
	tasks := store.NewMemory[contracts.TaskRecord]()
	now := fixedNow()
	putTask(t, tasks, now.Unix()-100, contracts.TaskStatusDone)
	putTask(t, tasks, now.Unix()-8*daySeconds, contracts.TaskStatusDone)
	a := New(tasks, nil, nil, nil, fixedNow, nil)

	metrics, err := a.GetProductivityMetrics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, metrics.Throughput)
}

func TestGetCollaborationMetrics_NoExecutionsStoreIsZero(t *testing.T) {
	a := New(nil, nil, nil, nil, fixedNow, nil)
	metrics, err := a.GetCollaborationMetrics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, metrics.ActiveAgents)
}

func TestLint_FlagsMissingTitle(t *testing.T) {
	tasks := store.NewMemory[contracts.TaskRecord]()
	id := "1700000000-task-x"
	rec := contracts.TaskRecord{Payload: contracts.TaskPayload{ID: id, Title: "", Status: contracts.TaskStatusDraft}}
	require.NoError(t, tasks.Put(context.Background(), id, &rec))
	a := New(tasks, nil, nil, nil, fixedNow, nil)

	problems, err := a.Lint(context.Background())
	require.NoError(t, err)
	require.Len(t, problems, 1)
}
