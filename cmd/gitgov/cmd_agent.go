package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/gitgovernance/core/pkg/agentrun"
	"github.com/gitgovernance/core/pkg/contracts"
)

func dispatchAgent(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov agent <create|list|get|archive|run> [flags]")
		return 2
	}
	switch args[0] {
	case "create":
		return runAgentCreate(args[1:], stdout, stderr)
	case "list":
		return runAgentList(args[1:], stdout, stderr)
	case "get":
		return runAgentGet(args[1:], stdout, stderr)
	case "archive":
		return runAgentArchive(args[1:], stdout, stderr)
	case "run":
		return runAgentRun(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown agent subcommand: %s\n", args[0])
		return 2
	}
}

func runAgentCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("agent create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.String("id", "", "agent id, must match an existing agent-type actor (REQUIRED)")
	engineType := fs.String("engine", "local", "local | api")
	entrypoint := fs.String("entrypoint", "", "local: path to the WASM module")
	function := fs.String("function", "", "local: exported function name")
	url := fs.String("url", "", "api: endpoint")
	actor := fs.String("actor", "", "actor id signing this manifest (defaults to current actor)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *id == "" {
		fmt.Fprintln(stderr, "Error: --id is required")
		return 2
	}

	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	actorID, err := d.resolveActor(*actor)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	rec, err := d.agent.Create(context.Background(), contracts.AgentPayload{
		ID:     *id,
		Engine: contracts.Engine{Type: contracts.EngineType(*engineType), Entrypoint: *entrypoint, Function: *function, URL: *url},
		Status: contracts.AgentStatusActive,
	}, actorID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

func runAgentList(_ []string, stdout, stderr io.Writer) int {
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	agents, err := d.agent.List(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, agents)
}

func runAgentGet(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov agent get <id>")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	rec, err := d.agent.Get(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if rec == nil {
		fmt.Fprintf(stderr, "Agent %q not found\n", args[0])
		return 1
	}
	return printJSON(stdout, rec)
}

func runAgentArchive(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("agent archive", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.String("id", "", "agent id to archive (REQUIRED)")
	actor := fs.String("actor", "", "actor id performing the archive (defaults to current actor)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *id == "" {
		fmt.Fprintln(stderr, "Error: --id is required")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	actorID, err := d.resolveActor(*actor)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	rec, err := d.agent.Archive(context.Background(), *id, actorID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

// runAgentRun invokes a local (WASM) agent's engine directly, outside the
// event-bus dispatch path — useful for manually replaying a trigger event
// against an agent while developing it.
func runAgentRun(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("agent run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.String("agent", "", "agent id to invoke (REQUIRED)")
	eventType := fs.String("event-type", "agent.triggered", "event type passed to the agent")
	payload := fs.String("payload", "{}", "JSON object passed as the event payload")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *id == "" {
		fmt.Fprintln(stderr, "Error: --agent is required")
		return 2
	}
	var payloadMap map[string]any
	if err := json.Unmarshal([]byte(*payload), &payloadMap); err != nil {
		fmt.Fprintf(stderr, "Error: --payload must be a JSON object: %v\n", err)
		return 2
	}

	ctx := context.Background()
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	rec, err := d.agent.Get(ctx, *id)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if rec == nil {
		fmt.Fprintf(stderr, "Agent %q not found\n", *id)
		return 1
	}

	runner, err := agentrun.NewRunner(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer runner.Close(ctx)

	out, err := runner.Run(ctx, rec.Payload.Engine, contracts.Event{
		Type:    contracts.EventType(*eventType),
		Source:  "gitgov agent run",
		Payload: payloadMap,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	stdout.Write(out)
	return 0
}
