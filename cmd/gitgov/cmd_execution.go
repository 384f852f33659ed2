package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/gitgovernance/core/pkg/contracts"
)

func dispatchExecution(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov execution <create|get|for-task> [flags]")
		return 2
	}
	switch args[0] {
	case "create":
		return runExecutionCreate(args[1:], stdout, stderr)
	case "get":
		return runExecutionGet(args[1:], stdout, stderr)
	case "for-task":
		return runExecutionForTask(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown execution subcommand: %s\n", args[0])
		return 2
	}
}

func runExecutionCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("execution create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	taskID := fs.String("task", "", "task id this execution belongs to (REQUIRED)")
	title := fs.String("title", "", "execution title")
	result := fs.String("result", "", "execution result summary")
	notes := fs.String("notes", "", "execution notes")
	actor := fs.String("actor", "", "actor id executing (defaults to current actor)")
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
	actorID, err := d.resolveActor(*actor)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	rec, err := d.exec.Create(context.Background(), contracts.ExecutionPayload{
		TaskID: *taskID,
		Result: *result,
		Notes:  *notes,
	}, *title, actorID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

func runExecutionGet(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov execution get <id>")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	rec, err := d.exec.GetExecution(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if rec == nil {
		fmt.Fprintf(stderr, "Execution %q not found\n", args[0])
		return 1
	}
	return printJSON(stdout, rec)
}

func runExecutionForTask(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov execution for-task <taskId>")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	recs, err := d.exec.GetExecutionsForTask(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, recs)
}
