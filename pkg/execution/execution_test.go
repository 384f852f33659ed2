package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/eventbus"
	"github.com/gitgovernance/core/pkg/identity"
	"github.com/gitgovernance/core/pkg/keyprovider"
	"github.com/gitgovernance/core/pkg/session"
	"github.com/gitgovernance/core/pkg/store"
)

func newFixtures(t *testing.T) (*identity.Adapter, *Adapter, *eventbus.Bus, string) {
	bus := eventbus.New(nil)
	ident := identity.New(store.NewMemory[contracts.ActorRecord](), keyprovider.NewMemory(), session.NewMemory(), bus, nil)
	a := New(store.NewMemory[contracts.ExecutionRecord](), ident, bus, nil)

	actor, err := ident.CreateActor(context.Background(), contracts.ActorPayload{Type: contracts.ActorTypeHuman, DisplayName: "Dana", Roles: []string{contracts.RoleExecutor}})
	require.NoError(t, err)
	return ident, a, bus, actor.Payload.ID
}

func TestCreate_SignsPersistsAndPublishes(t *testing.T) {
	_, a, bus, actorID := newFixtures(t)
	ctx := context.Background()

	var captured contracts.Event
	bus.Subscribe(contracts.EventExecutionCreated, func(e contracts.Event) { captured = e })

	rec, err := a.Create(ctx, contracts.ExecutionPayload{TaskID: "1700000000-task-x"}, "did some work", actorID)
	require.NoError(t, err)
	require.Equal(t, actorID, rec.Payload.ActorID)

	bus.WaitForIdle()
	require.Equal(t, "1700000000-task-x", captured.Payload["taskId"])
}

func TestGetExecutionsForTask_FiltersByTaskID(t *testing.T) {
	_, a, _, actorID := newFixtures(t)
	ctx := context.Background()

	_, err := a.Create(ctx, contracts.ExecutionPayload{TaskID: "1700000000-task-a"}, "a", actorID)
	require.NoError(t, err)
	_, err = a.Create(ctx, contracts.ExecutionPayload{TaskID: "1700000000-task-b"}, "b", actorID)
	require.NoError(t, err)

	got, err := a.GetExecutionsForTask(ctx, "1700000000-task-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
}
