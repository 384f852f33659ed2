package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/gitgovernance/core/pkg/contracts"
)

func dispatchChangelog(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov changelog <create|get> [flags]")
		return 2
	}
	switch args[0] {
	case "create":
		return runChangelogCreate(args[1:], stdout, stderr)
	case "get":
		return runChangelogGet(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown changelog subcommand: %s\n", args[0])
		return 2
	}
}

func runChangelogCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("changelog create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "changelog title (REQUIRED)")
	summary := fs.String("summary", "", "changelog summary")
	relatedTasks := fs.String("related-tasks", "", "comma-separated task ids this entry closes out")
	actor := fs.String("actor", "", "actor id authoring this entry (defaults to current actor)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *title == "" {
		fmt.Fprintln(stderr, "Error: --title is required")
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
	var related []string
	if *relatedTasks != "" {
		related = strings.Split(*relatedTasks, ",")
	}
	rec, err := d.changelg.Create(context.Background(), contracts.ChangelogPayload{
		Title:        *title,
		Summary:      *summary,
		RelatedTasks: related,
	}, actorID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

func runChangelogGet(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov changelog get <id>")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	rec, err := d.changelg.GetChangelog(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if rec == nil {
		fmt.Fprintf(stderr, "Changelog %q not found\n", args[0])
		return 1
	}
	return printJSON(stdout, rec)
}
