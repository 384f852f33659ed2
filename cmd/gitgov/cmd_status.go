package main

import (
	"context"
	"flag"
	"fmt"
	"io"
)

func runStatus(_ []string, stdout, stderr io.Writer) int {
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	status, err := d.backlog.GetSystemStatus(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, status)
}

func runHealth(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(stderr)
	taskID := fs.String("task", "", "task id (REQUIRED)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *taskID == "" {
		fmt.Fprintln(stderr, "Error: --task is required")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	health, err := d.backlog.GetTaskHealth(context.Background(), *taskID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, health)
}

func runLint(_ []string, stdout, stderr io.Writer) int {
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	warnings, err := d.backlog.Lint(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(warnings) == 0 {
		fmt.Fprintln(stdout, "No lint warnings.")
		return 0
	}
	for _, w := range warnings {
		fmt.Fprintln(stdout, w)
	}
	return 0
}

func runAudit(_ []string, stdout, stderr io.Writer) int {
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	suggestions, err := d.backlog.Audit(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(stdout, "No audit suggestions.")
		return 0
	}
	for _, s := range suggestions {
		fmt.Fprintln(stdout, s)
	}
	return 0
}
