package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/gitgovernance/core/pkg/contracts"
)

func dispatchCycle(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov cycle <create|get|list|add-task|remove-tasks|move-tasks|set-status> [flags]")
		return 2
	}
	switch args[0] {
	case "create":
		return runCycleCreate(args[1:], stdout, stderr)
	case "get":
		return runCycleGet(args[1:], stdout, stderr)
	case "list":
		return runCycleList(args[1:], stdout, stderr)
	case "add-task":
		return runCycleAddTask(args[1:], stdout, stderr)
	case "remove-tasks":
		return runCycleRemoveTasks(args[1:], stdout, stderr)
	case "move-tasks":
		return runCycleMoveTasks(args[1:], stdout, stderr)
	case "set-status":
		return runCycleSetStatus(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown cycle subcommand: %s\n", args[0])
		return 2
	}
}

func runCycleCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cycle create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "cycle title (REQUIRED)")
	tags := fs.String("tags", "", "comma-separated tags")
	actor := fs.String("actor", "", "actor id authoring this cycle (defaults to current actor)")
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
	var tagList []string
	if *tags != "" {
		tagList = strings.Split(*tags, ",")
	}
	rec, err := d.backlog.CreateCycle(context.Background(), contracts.CyclePayload{
		Title:  *title,
		Tags:   tagList,
		Status: contracts.CycleStatusPlanning,
	}, actorID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

func runCycleGet(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov cycle get <id>")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	rec, err := d.backlog.GetCycle(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if rec == nil {
		fmt.Fprintf(stderr, "Cycle %q not found\n", args[0])
		return 1
	}
	return printJSON(stdout, rec)
}

func runCycleList(_ []string, stdout, stderr io.Writer) int {
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	cycles, err := listAll(context.Background(), d.cycleSt)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, cycles)
}

func runCycleAddTask(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cycle add-task", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cycleID := fs.String("cycle", "", "cycle id (REQUIRED)")
	taskID := fs.String("task", "", "task id (REQUIRED)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *cycleID == "" || *taskID == "" {
		fmt.Fprintln(stderr, "Error: --cycle and --task are required")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	if err := d.backlog.AddTaskToCycle(context.Background(), *cycleID, *taskID); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "ok")
	return 0
}

func runCycleRemoveTasks(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cycle remove-tasks", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cycleID := fs.String("cycle", "", "cycle id (REQUIRED)")
	taskIDs := fs.String("tasks", "", "comma-separated task ids (REQUIRED)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *cycleID == "" || *taskIDs == "" {
		fmt.Fprintln(stderr, "Error: --cycle and --tasks are required")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	if err := d.backlog.RemoveTasksFromCycle(context.Background(), *cycleID, strings.Split(*taskIDs, ",")); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "ok")
	return 0
}

func runCycleMoveTasks(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cycle move-tasks", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", "", "source cycle id (REQUIRED)")
	to := fs.String("to", "", "destination cycle id (REQUIRED)")
	taskIDs := fs.String("tasks", "", "comma-separated task ids (REQUIRED)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *from == "" || *to == "" || *taskIDs == "" {
		fmt.Fprintln(stderr, "Error: --from, --to, and --tasks are required")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	if err := d.backlog.MoveTasksBetweenCycles(context.Background(), *from, *to, strings.Split(*taskIDs, ",")); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "ok")
	return 0
}

func runCycleSetStatus(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cycle set-status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.String("id", "", "cycle id (REQUIRED)")
	status := fs.String("status", "", "planning|active|completed|archived (REQUIRED)")
	actor := fs.String("actor", "", "actor id performing the change (defaults to current actor)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *id == "" || *status == "" {
		fmt.Fprintln(stderr, "Error: --id and --status are required")
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
	rec, err := d.backlog.UpdateCycle(context.Background(), *id, func(p *contracts.CyclePayload) {
		p.Status = contracts.CycleStatus(*status)
	}, actorID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}
