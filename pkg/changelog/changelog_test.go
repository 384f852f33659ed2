package changelog

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

func newFixtures(t *testing.T) (*Adapter, *eventbus.Bus, string) {
	bus := eventbus.New(nil)
	ident := identity.New(store.NewMemory[contracts.ActorRecord](), keyprovider.NewMemory(), session.NewMemory(), bus, nil)
	a := New(store.NewMemory[contracts.ChangelogRecord](), ident, bus, nil)

	actor, err := ident.CreateActor(context.Background(), contracts.ActorPayload{Type: contracts.ActorTypeHuman, DisplayName: "Dana", Roles: []string{contracts.RoleAuthor}})
	require.NoError(t, err)
	return a, bus, actor.Payload.ID
}

func TestCreate_SignsPersistsAndPublishes(t *testing.T) {
	a, bus, actorID := newFixtures(t)
	ctx := context.Background()

	var captured contracts.Event
	bus.Subscribe(contracts.EventChangelogCreated, func(e contracts.Event) { captured = e })

	rec, err := a.Create(ctx, contracts.ChangelogPayload{Title: "shipped the thing", RelatedTasks: []string{"1700000000-task-a"}}, actorID)
	require.NoError(t, err)
	require.Equal(t, "shipped the thing", rec.Payload.Title)

	bus.WaitForIdle()
	related, ok := captured.Payload["relatedTasks"].([]string)
	require.True(t, ok)
	require.Equal(t, []string{"1700000000-task-a"}, related)
}

func TestCreate_RejectsEmptyTitle(t *testing.T) {
	a, _, actorID := newFixtures(t)
	ctx := context.Background()

	_, err := a.Create(ctx, contracts.ChangelogPayload{}, actorID)
	require.Error(t, err)
}

func TestGetChangelog_NilOnMissing(t *testing.T) {
	a, _, _ := newFixtures(t)
	ctx := context.Background()

	got, err := a.GetChangelog(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, got)
}
