package agent

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

func newTestFixtures() (*identity.Adapter, *Adapter) {
	bus := eventbus.New(nil)
	ident := identity.New(store.NewMemory[contracts.ActorRecord](), keyprovider.NewMemory(), session.NewMemory(), bus, nil)
	ag := New(store.NewMemory[contracts.AgentRecord](), ident, bus, nil)
	return ident, ag
}

func TestCreate_RequiresExistingAgentActor(t *testing.T) {
	ctx := context.Background()
	_, ag := newTestFixtures()

	_, err := ag.Create(ctx, contracts.AgentPayload{
		ID:     "agent:release-bot",
		Engine: contracts.Engine{Type: contracts.EngineTypeAPI, URL: "https://example.com"},
	}, "agent:release-bot")
	require.Error(t, err)
}

func TestCreate_RejectsNonAgentActor(t *testing.T) {
	ctx := context.Background()
	ident, ag := newTestFixtures()

	human, err := ident.CreateActor(ctx, contracts.ActorPayload{Type: contracts.ActorTypeHuman, DisplayName: "release-bot"})
	require.NoError(t, err)

	_, err = ag.Create(ctx, contracts.AgentPayload{
		ID:     human.Payload.ID,
		Engine: contracts.Engine{Type: contracts.EngineTypeAPI, URL: "https://example.com"},
	}, human.Payload.ID)
	require.Error(t, err)
}

func TestCreate_SignsAndPersists(t *testing.T) {
	ctx := context.Background()
	ident, ag := newTestFixtures()

	agentActor, err := ident.CreateActor(ctx, contracts.ActorPayload{Type: contracts.ActorTypeAgent, DisplayName: "release-bot"})
	require.NoError(t, err)

	rec, err := ag.Create(ctx, contracts.AgentPayload{
		ID:     agentActor.Payload.ID,
		Engine: contracts.Engine{Type: contracts.EngineTypeAPI, URL: "https://example.com/run"},
	}, agentActor.Payload.ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.AgentStatusActive, rec.Payload.Status)

	got, err := ag.Get(ctx, agentActor.Payload.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestArchive_SetsStatusAndPreservesID(t *testing.T) {
	ctx := context.Background()
	ident, ag := newTestFixtures()

	agentActor, err := ident.CreateActor(ctx, contracts.ActorPayload{Type: contracts.ActorTypeAgent, DisplayName: "triage-bot"})
	require.NoError(t, err)
	_, err = ag.Create(ctx, contracts.AgentPayload{
		ID:     agentActor.Payload.ID,
		Engine: contracts.Engine{Type: contracts.EngineTypeAPI, URL: "https://example.com/run"},
	}, agentActor.Payload.ID)
	require.NoError(t, err)

	archived, err := ag.Archive(ctx, agentActor.Payload.ID, agentActor.Payload.ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.AgentStatusArchived, archived.Payload.Status)
	assert.Equal(t, agentActor.Payload.ID, archived.Payload.ID)
}

func TestGet_ReturnsNilForMissing(t *testing.T) {
	_, ag := newTestFixtures()
	rec, err := ag.Get(context.Background(), "agent:nobody")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
