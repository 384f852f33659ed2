package feedback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/eventbus"
	"github.com/gitgovernance/core/pkg/identity"
	"github.com/gitgovernance/core/pkg/keyprovider"
	"github.com/gitgovernance/core/pkg/session"
	"github.com/gitgovernance/core/pkg/store"
)

func newTestFixtures(t *testing.T) (*identity.Adapter, *Adapter, string) {
	bus := eventbus.New(nil)
	ident := identity.New(store.NewMemory[contracts.ActorRecord](), keyprovider.NewMemory(), session.NewMemory(), bus, nil)
	fb := New(store.NewMemory[contracts.FeedbackRecord](), ident, bus, nil)

	actor, err := ident.CreateActor(context.Background(), contracts.ActorPayload{Type: contracts.ActorTypeHuman, DisplayName: "Grace"})
	require.NoError(t, err)
	return ident, fb, actor.Payload.ID
}

func TestCreate_SignsAndPersists(t *testing.T) {
	ctx := context.Background()
	_, fb, actorID := newTestFixtures(t)

	rec, err := fb.Create(ctx, contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask,
		EntityID:   "1700000000-task-ship-it",
		Type:       contracts.FeedbackTypeBlocking,
		Content:    "blocked on review",
	}, "blocked on review", actorID)
	require.NoError(t, err)
	assert.Equal(t, contracts.FeedbackStatusOpen, rec.Payload.Status)
}

func TestCreate_DuplicateAssignmentGuard(t *testing.T) {
	ctx := context.Background()
	_, fb, actorID := newTestFixtures(t)

	base := contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask,
		EntityID:   "1700000000-task-ship-it",
		Type:       contracts.FeedbackTypeAssignment,
		Assignee:   "human:grace",
		Content:    "please own this",
	}
	_, err := fb.Create(ctx, base, "please own this", actorID)
	require.NoError(t, err)

	_, err = fb.Create(ctx, base, "please own this again", actorID)
	require.Error(t, err)
}

func TestResolve_ProducesNewRecordNotMutation(t *testing.T) {
	ctx := context.Background()
	_, fb, actorID := newTestFixtures(t)

	original, err := fb.Create(ctx, contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask,
		EntityID:   "1700000000-task-ship-it",
		Type:       contracts.FeedbackTypeBlocking,
		Content:    "blocked",
	}, "blocked", actorID)
	require.NoError(t, err)

	resolved, err := fb.Resolve(ctx, original.Payload.ID, actorID, "unblocked now")
	require.NoError(t, err)
	assert.NotEqual(t, original.Payload.ID, resolved.Payload.ID)
	assert.Equal(t, original.Payload.ID, resolved.Payload.ResolvesFeedbackID)
	assert.Equal(t, contracts.FeedbackStatusResolved, resolved.Payload.Status)

	stillOriginal, err := fb.GetFeedback(ctx, original.Payload.ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.FeedbackStatusOpen, stillOriginal.Payload.Status)
}

func TestResolve_RejectsMissingAndAlreadyResolved(t *testing.T) {
	ctx := context.Background()
	_, fb, actorID := newTestFixtures(t)

	_, err := fb.Resolve(ctx, "nonexistent", actorID, "note")
	require.Error(t, err)

	original, err := fb.Create(ctx, contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask,
		EntityID:   "1700000000-task-ship-it",
		Type:       contracts.FeedbackTypeBlocking,
		Content:    "blocked",
	}, "blocked", actorID)
	require.NoError(t, err)

	_, err = fb.Resolve(ctx, original.Payload.ID, actorID, "note")
	require.NoError(t, err)
	_, err = fb.Resolve(ctx, original.Payload.ID, actorID, "again")
	require.Error(t, err)
}

func TestGetFeedbackByEntity(t *testing.T) {
	ctx := context.Background()
	_, fb, actorID := newTestFixtures(t)

	_, err := fb.Create(ctx, contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask, EntityID: "t1", Type: contracts.FeedbackTypeSuggestion, Content: "a",
	}, "a", actorID)
	require.NoError(t, err)
	_, err = fb.Create(ctx, contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityTask, EntityID: "t2", Type: contracts.FeedbackTypeSuggestion, Content: "b",
	}, "b", actorID)
	require.NoError(t, err)

	byEntity, err := fb.GetFeedbackByEntity(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, byEntity, 1)
}
