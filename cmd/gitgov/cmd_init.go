package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gitgovernance/core/pkg/config"
	"github.com/gitgovernance/core/pkg/contracts"
)

// runInit creates the .gitgov directory tree, writes a default config.json,
// and bootstraps the first actor (spec §4.4's "first actor created becomes
// isBootstrap").
func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	home := fs.String("home", ".gitgov", "workspace directory to create")
	name := fs.String("name", "", "display name for the bootstrap actor (REQUIRED)")
	methodology := fs.String("methodology", "kanban", "kanban | scrum | path to a custom methodology document")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(stderr, "Error: --name is required")
		return 2
	}

	for _, kind := range []string{"actors", "agents", "tasks", "cycles", "feedback", "executions", "changelogs"} {
		if err := os.MkdirAll(filepath.Join(*home, kind), 0o755); err != nil {
			fmt.Fprintf(stderr, "Error creating %s: %v\n", kind, err)
			return 1
		}
	}

	cfg := &config.Config{GitgovHome: *home, LogLevel: "INFO", Methodology: *methodology}
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(stderr, "Error writing config.json: %v\n", err)
		return 1
	}

	os.Setenv("GITGOV_HOME", *home)
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error initializing adapters: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()

	actor, err := d.identity.CreateActor(context.Background(), contracts.ActorPayload{
		Type:        contracts.ActorTypeHuman,
		DisplayName: *name,
		Roles:       []string{contracts.RoleAuthor},
		Status:      contracts.ActorStatusActive,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error bootstrapping actor: %v\n", err)
		return 1
	}

	// The reactive handlers in pkg/backlog (auto-pause/resume, archive
	// propagation, daily-tick suggestions) sign as "agent:gitgov-system";
	// that actor must exist or every one of those handlers fails closed.
	if _, err := d.identity.CreateActor(context.Background(), contracts.ActorPayload{
		Type:        contracts.ActorTypeAgent,
		DisplayName: "gitgov-system",
		Roles:       []string{"system"},
		Status:      contracts.ActorStatusActive,
	}); err != nil {
		fmt.Fprintf(stderr, "Error bootstrapping system actor: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "%sInitialized %s%s\n", ColorBold+ColorGreen, *home, ColorReset)
	fmt.Fprintf(stdout, "Bootstrap actor: %s (%s)\n", actor.Payload.ID, actor.Payload.DisplayName)
	fmt.Fprintf(stdout, "Methodology:     %s\n", *methodology)
	return 0
}
