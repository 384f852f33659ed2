package methodology

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

func TestLoadKanban_LoadsAndValidates(t *testing.T) {
	doc, err := LoadKanban()
	require.NoError(t, err)
	require.Equal(t, "kanban", doc.Name)
	require.Contains(t, doc.StateTransitions, "active")
}

func TestLoadScrum_LoadsAndValidates(t *testing.T) {
	doc, err := LoadScrum()
	require.NoError(t, err)
	require.Equal(t, "scrum", doc.Name)
	require.Contains(t, doc.StateTransitions["ready"].Requires.Signatures, "scrum")
}

func TestLoadDocument_RejectsUnsupportedVersion(t *testing.T) {
	raw := []byte(`{"name":"x","version":"2.0.0","state_transitions":{"review":{"from":["draft"]}}}`)
	_, err := LoadDocument(raw)
	require.Error(t, err)
	require.True(t, gitgoverr.Is(err, gitgoverr.KindInvalidData))
}

func TestLoadDocument_RejectsSchemaViolation(t *testing.T) {
	raw := []byte(`{"name":"x","version":"1.0.0"}`)
	_, err := LoadDocument(raw)
	require.Error(t, err)
	require.True(t, gitgoverr.Is(err, gitgoverr.KindInvalidData))
}

func TestGetTransitionRule_MatchesFromState(t *testing.T) {
	a, err := CreateDefault(nil)
	require.NoError(t, err)

	req := a.GetTransitionRule("draft", "review")
	require.NotNil(t, req)
	require.Equal(t, "gitgov task submit", req.Command)

	require.Nil(t, a.GetTransitionRule("active", "review"))
	require.Nil(t, a.GetTransitionRule("draft", "nonexistent"))
}

func TestGetAvailableTransitions_ListsAllTargets(t *testing.T) {
	a, err := CreateDefault(nil)
	require.NoError(t, err)

	targets := a.GetAvailableTransitions("active")
	require.Len(t, targets, 3) // paused, done, discarded
}

func TestValidateSignature_RequiresTransitionTo(t *testing.T) {
	a, err := CreateDefault(nil)
	require.NoError(t, err)

	_, err = a.ValidateSignature(contracts.Signature{Role: "author"}, Context{})
	require.True(t, gitgoverr.Is(err, gitgoverr.KindMissingTransitionTo))
}

func TestValidateSignature_AcceptsMatchingRoleAndCapability(t *testing.T) {
	a, err := CreateDefault(nil)
	require.NoError(t, err)

	ctx := Context{
		TransitionTo: "review",
		Task:         contracts.TaskPayload{Status: contracts.TaskStatusDraft},
		Actor:        contracts.ActorPayload{Roles: []string{contracts.RoleAuthor}},
	}
	sig := contracts.Signature{Role: "author"}

	ok, err := a.ValidateSignature(sig, ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValidateSignature_RejectsWrongFromState(t *testing.T) {
	a, err := CreateDefault(nil)
	require.NoError(t, err)

	ctx := Context{
		TransitionTo: "review",
		Task:         contracts.TaskPayload{Status: contracts.TaskStatusActive},
		Actor:        contracts.ActorPayload{Roles: []string{contracts.RoleAuthor}},
	}
	sig := contracts.Signature{Role: "author"}

	ok, err := a.ValidateSignature(sig, ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValidateSignature_RejectsMissingCapabilityRole(t *testing.T) {
	a, err := CreateDefault(nil)
	require.NoError(t, err)

	ctx := Context{
		TransitionTo: "ready",
		Task:         contracts.TaskPayload{Status: contracts.TaskStatusReview},
		Actor:        contracts.ActorPayload{Roles: []string{"executor"}},
	}
	sig := contracts.Signature{Role: "approver"}

	ok, err := a.ValidateSignature(sig, ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValidateSignature_ScrumSelectsMasterGroupOverDefault(t *testing.T) {
	a, err := CreateScrum(nil)
	require.NoError(t, err)

	ctx := Context{
		TransitionTo: "ready",
		Task:         contracts.TaskPayload{Status: contracts.TaskStatusReview},
		Actor:        contracts.ActorPayload{Roles: []string{contracts.RoleScrumMaster}},
	}
	sig := contracts.Signature{Role: "scrum:master"}

	ok, err := a.ValidateSignature(sig, ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValidateCustomRules_AssignmentRequired(t *testing.T) {
	a, err := CreateScrum(nil)
	require.NoError(t, err)

	ok := a.ValidateCustomRules([]string{"assignment_required"}, Context{ResolvedAssignmentExists: false})
	require.False(t, ok)

	ok = a.ValidateCustomRules([]string{"assignment_required"}, Context{ResolvedAssignmentExists: true})
	require.True(t, ok)
}

func TestValidateCustomRules_SprintCapacity(t *testing.T) {
	a, err := CreateDefault(nil)
	require.NoError(t, err)

	ok := a.ValidateCustomRules([]string{"sprint_capacity"}, Context{ActiveCycleReferenced: false})
	require.False(t, ok)

	ok = a.ValidateCustomRules([]string{"sprint_capacity"}, Context{ActiveCycleReferenced: true})
	require.True(t, ok)
}

func TestValidateCustomRules_EpicComplexitySkipsNonEpics(t *testing.T) {
	a, err := CreateScrum(nil)
	require.NoError(t, err)

	ctx := Context{Task: contracts.TaskPayload{Tags: []string{"backend"}, Status: contracts.TaskStatusActive}}
	require.True(t, a.ValidateCustomRules([]string{"epic_complexity"}, ctx))
}

func TestValidateCustomRules_EpicComplexityRequiresPausedWithChildCycle(t *testing.T) {
	a, err := CreateScrum(nil)
	require.NoError(t, err)

	ctx := Context{
		Task:            contracts.TaskPayload{Tags: []string{"epic:payments"}, Status: contracts.TaskStatusActive},
		ChildCycleCount: 0,
	}
	require.False(t, a.ValidateCustomRules([]string{"epic_complexity"}, ctx))

	ctx.Task.Status = contracts.TaskStatusPaused
	ctx.ChildCycleCount = 1
	require.True(t, a.ValidateCustomRules([]string{"epic_complexity"}, ctx))
}

func TestValidateCustomRules_UnknownRuleFailsClosed(t *testing.T) {
	a, err := CreateDefault(nil)
	require.NoError(t, err)

	require.False(t, a.ValidateCustomRules([]string{"does_not_exist"}, Context{}))
}

func TestValidateCustomRules_CustomCELExpression(t *testing.T) {
	doc, err := LoadKanban()
	require.NoError(t, err)
	doc.CustomRules["tagged_urgent"] = CustomRuleDef{
		Validation: ValidationCustom,
		Expression: `"urgent" in task_tags`,
	}
	a := New(doc, nil)

	require.True(t, a.ValidateCustomRules([]string{"tagged_urgent"}, Context{
		Task: contracts.TaskPayload{Tags: []string{"urgent", "backend"}},
	}))
	require.False(t, a.ValidateCustomRules([]string{"tagged_urgent"}, Context{
		Task: contracts.TaskPayload{Tags: []string{"backend"}},
	}))
}
