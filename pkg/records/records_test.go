package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitgovernance/core/pkg/contracts"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "fix-login-bug", Slugify("Fix Login Bug"))
	assert.Equal(t, "cafe-con-leche", Slugify("Café con leche"))
	assert.Equal(t, "untitled", Slugify("   "))
}

func TestGenerateTaskID_MatchesPattern(t *testing.T) {
	id := GenerateTaskID("Ship the release", 1700000000)
	assert.Equal(t, "1700000000-task-ship-the-release", id)
	ts, err := IDTimestamp(id)
	require.NoError(t, err)
	assert.EqualValues(t, 1700000000, ts)
}

func TestGenerateActorID_MatchesRegex(t *testing.T) {
	id := GenerateActorID("human", "Alice Smith")
	assert.Equal(t, "human:alice-smith", id)
	assert.True(t, ValidateActorID(id))
	assert.False(t, ValidateActorID("bogus"))
}

func TestIDTimestamp_RejectsMalformed(t *testing.T) {
	_, err := IDTimestamp("not-an-id")
	require.Error(t, err)
	_, err = IDTimestamp("-5-task-x")
	require.Error(t, err)
}

func TestBuildActorPayload_DefaultsRolesAndStatus(t *testing.T) {
	p, err := BuildActorPayload(contracts.ActorPayload{
		Type:        contracts.ActorTypeHuman,
		DisplayName: "Bob",
		PublicKey:   "irrelevant-for-this-test",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{contracts.RoleAuthor}, p.Roles)
	assert.Equal(t, contracts.ActorStatusActive, p.Status)
	assert.True(t, ValidateActorID(p.ID))
}

func TestBuildActorPayload_RejectsMissingFields(t *testing.T) {
	_, err := BuildActorPayload(contracts.ActorPayload{})
	require.Error(t, err)
}

func TestBuildTaskPayload_DefaultsStatusDraft(t *testing.T) {
	p, err := BuildTaskPayload(contracts.TaskPayload{Title: "Write docs"}, 1700000000)
	require.NoError(t, err)
	assert.Equal(t, contracts.TaskStatusDraft, p.Status)
	assert.Equal(t, "1700000000-task-write-docs", p.ID)
}

func TestBuildFeedbackPayload_DefaultsStatusOpen(t *testing.T) {
	p, err := BuildFeedbackPayload(contracts.FeedbackPayload{
		EntityID:   "1700000000-task-write-docs",
		EntityType: contracts.FeedbackEntityTask,
		Type:       contracts.FeedbackTypeBlocking,
		Content:    "blocked on review",
	}, "blocked on review", 1700000001)
	require.NoError(t, err)
	assert.Equal(t, contracts.FeedbackStatusOpen, p.Status)
}

func TestValidateTaskPayload_RejectsUnknownStatus(t *testing.T) {
	_, err := ValidateTaskPayload(contracts.TaskPayload{
		ID:     "1700000000-task-x",
		Title:  "x",
		Status: "bogus",
	})
	require.Error(t, err)
}

func TestBuildAgentPayload_RequiresLocalEngineFields(t *testing.T) {
	_, err := BuildAgentPayload(contracts.AgentPayload{
		ID:     "agent:release-bot",
		Engine: contracts.Engine{Type: contracts.EngineTypeLocal},
	})
	require.Error(t, err)

	p, err := BuildAgentPayload(contracts.AgentPayload{
		ID: "agent:release-bot",
		Engine: contracts.Engine{
			Type:       contracts.EngineTypeLocal,
			Entrypoint: "module.wasm",
			Function:   "run",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, contracts.AgentStatusActive, p.Status)
}
