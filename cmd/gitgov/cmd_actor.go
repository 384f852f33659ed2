package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/gitgovernance/core/pkg/contracts"
)

func dispatchActor(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov actor <create|list|get|revoke|rotate-key> [flags]")
		return 2
	}
	switch args[0] {
	case "create":
		return runActorCreate(args[1:], stdout, stderr)
	case "list":
		return runActorList(args[1:], stdout, stderr)
	case "get":
		return runActorGet(args[1:], stdout, stderr)
	case "revoke":
		return runActorRevoke(args[1:], stdout, stderr)
	case "rotate-key":
		return runActorRotateKey(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown actor subcommand: %s\n", args[0])
		return 2
	}
}

func runActorCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("actor create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "display name (REQUIRED)")
	actorType := fs.String("type", "human", "human | agent")
	roles := fs.String("roles", "author", "comma-separated roles")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(stderr, "Error: --name is required")
		return 2
	}

	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	rec, err := d.identity.CreateActor(context.Background(), contracts.ActorPayload{
		Type:        contracts.ActorType(*actorType),
		DisplayName: *name,
		Roles:       strings.Split(*roles, ","),
		Status:      contracts.ActorStatusActive,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

func runActorList(_ []string, stdout, stderr io.Writer) int {
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	actors, err := d.identity.ListActors(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, actors)
}

func runActorGet(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov actor get <id>")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	rec, err := d.identity.GetActor(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if rec == nil {
		fmt.Fprintf(stderr, "Actor %q not found\n", args[0])
		return 1
	}
	return printJSON(stdout, rec)
}

func runActorRevoke(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("actor revoke", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.String("id", "", "actor id to revoke (REQUIRED)")
	by := fs.String("by", "", "actor id doing the revoking (REQUIRED)")
	reason := fs.String("reason", "", "reason for revocation")
	supersededBy := fs.String("superseded-by", "", "replacement actor id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *id == "" || *by == "" {
		fmt.Fprintln(stderr, "Error: --id and --by are required")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	rec, err := d.identity.RevokeActor(context.Background(), *id, *by, *reason, *supersededBy)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

func runActorRotateKey(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov actor rotate-key <id>")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	result, err := d.identity.RotateActorKey(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, result)
}
