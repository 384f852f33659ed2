package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// runCLI runs Run against a fresh .gitgov workspace rooted at t.TempDir(),
// mirroring the teacher's Run(args, stdout, stderr) testability pattern.
func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"gitgov"}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func setupWorkspace(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), ".gitgov")
	t.Setenv("GITGOV_HOME", home)
	t.Setenv("GITGOV_KEY_PASSPHRASE", "test-passphrase")

	out, errOut, code := runCLI(t, "init", "--home", home, "--name", "Ada")
	require.Equal(t, 0, code, "stderr: %s", errOut)
	require.Contains(t, out, "Initialized")
	return home
}

func TestInit_BootstrapsWorkspaceAndActor(t *testing.T) {
	home := setupWorkspace(t)
	for _, kind := range []string{"actors", "agents", "tasks", "cycles", "feedback", "executions", "changelogs"} {
		info, err := os.Stat(filepath.Join(home, kind))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
	_, err := os.Stat(filepath.Join(home, "config.json"))
	require.NoError(t, err)
}

// createActorWithRoles creates an actor bearing roles and returns its id,
// used because the kanban methodology gates review->ready on an approver
// capability and ready->active/active->done on an executor one — roles
// the single author-only bootstrap actor from setupWorkspace doesn't carry.
func createActorWithRoles(t *testing.T, name, roles string) string {
	t.Helper()
	out, errOut, code := runCLI(t, "actor", "create", "--name", name, "--roles", roles)
	require.Equal(t, 0, code, "stderr: %s", errOut)
	var created struct {
		Payload struct {
			ID string `json:"id"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	return created.Payload.ID
}

func TestTaskLifecycle_CreateThroughComplete(t *testing.T) {
	setupWorkspace(t)

	approver := createActorWithRoles(t, "Priya", "approver:product")
	executor := createActorWithRoles(t, "Sam", "executor")

	out, errOut, code := runCLI(t, "cycle", "create", "--title", "Sprint 1")
	require.Equal(t, 0, code, "stderr: %s", errOut)
	var cycle struct {
		Payload struct {
			ID string `json:"id"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cycle))
	cycleID := cycle.Payload.ID

	_, errOut, code = runCLI(t, "cycle", "set-status", "--id", cycleID, "--status", "active")
	require.Equal(t, 0, code, "stderr: %s", errOut)

	out, errOut, code = runCLI(t, "task", "create", "--title", "Write the spec")
	require.Equal(t, 0, code, "stderr: %s", errOut)
	var created struct {
		Payload struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.Equal(t, "draft", created.Payload.Status)
	taskID := created.Payload.ID

	// sprint_capacity, gating ready->active, requires the task to reference
	// an active cycle (spec's custom-rule evaluation, pkg/methodology).
	_, errOut, code = runCLI(t, "cycle", "add-task", "--cycle", cycleID, "--task", taskID)
	require.Equal(t, 0, code, "stderr: %s", errOut)

	out, errOut, code = runCLI(t, "task", "submit", "--id", taskID)
	require.Equal(t, 0, code, "stderr: %s", errOut)
	require.Contains(t, out, `"status": "review"`)

	out, errOut, code = runCLI(t, "task", "approve", "--id", taskID, "--actor", approver)
	require.Equal(t, 0, code, "stderr: %s", errOut)
	require.Contains(t, out, `"status": "ready"`)

	out, errOut, code = runCLI(t, "task", "activate", "--id", taskID, "--actor", executor)
	require.Equal(t, 0, code, "stderr: %s", errOut)
	require.Contains(t, out, `"status": "active"`)

	out, errOut, code = runCLI(t, "task", "complete", "--id", taskID, "--actor", executor)
	require.Equal(t, 0, code, "stderr: %s", errOut)
	require.Contains(t, out, `"status": "done"`)

	out, errOut, code = runCLI(t, "task", "get", taskID)
	require.Equal(t, 0, code, "stderr: %s", errOut)
	require.Contains(t, out, taskID)
}

func TestStatusAndDoctor_ReportOnInitializedWorkspace(t *testing.T) {
	setupWorkspace(t)

	out, errOut, code := runCLI(t, "doctor")
	require.Equal(t, 0, code, "stderr: %s", errOut)
	require.Contains(t, out, "OK")

	out, errOut, code = runCLI(t, "status")
	require.Equal(t, 0, code, "stderr: %s", errOut)
	require.Contains(t, out, "healthScore")
}

func TestAgentRun_FailsOnMissingWasmEntrypoint(t *testing.T) {
	setupWorkspace(t)

	// Agent.Create requires the id to match an existing agent-type actor.
	out, errOut, code := runCLI(t, "actor", "create", "--name", "Summarizer", "--type", "agent", "--roles", "executor")
	require.Equal(t, 0, code, "stderr: %s", errOut)
	var actor struct {
		Payload struct {
			ID string `json:"id"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &actor))

	out, errOut, code = runCLI(t, "agent", "create", "--id", actor.Payload.ID,
		"--engine", "local", "--entrypoint", "/nonexistent/summarizer.wasm", "--function", "run")
	require.Equal(t, 0, code, "stderr: %s", errOut)
	require.Contains(t, out, actor.Payload.ID)

	_, errOut, code = runCLI(t, "agent", "run", "--agent", actor.Payload.ID)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "Error:")
}

func TestUnknownCommand_PrintsUsageAndFails(t *testing.T) {
	_, errOut, code := runCLI(t, "not-a-command")
	require.Equal(t, 2, code)
	require.Contains(t, errOut, "Unknown command")
}
