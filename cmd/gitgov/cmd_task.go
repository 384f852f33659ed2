package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/gitgovernance/core/pkg/contracts"
)

func dispatchTask(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov task <create|get|list|submit|approve|activate|complete|pause|resume|discard> [flags]")
		return 2
	}
	switch args[0] {
	case "create":
		return runTaskCreate(args[1:], stdout, stderr)
	case "get":
		return runTaskGet(args[1:], stdout, stderr)
	case "list":
		return runTaskList(args[1:], stdout, stderr)
	case "submit":
		return runTaskTransition(args[1:], stdout, stderr, (*deps).SubmitTaskCmd)
	case "approve":
		return runTaskTransition(args[1:], stdout, stderr, (*deps).ApproveTaskCmd)
	case "activate":
		return runTaskTransition(args[1:], stdout, stderr, (*deps).ActivateTaskCmd)
	case "complete":
		return runTaskTransition(args[1:], stdout, stderr, (*deps).CompleteTaskCmd)
	case "pause":
		return runTaskTransition(args[1:], stdout, stderr, (*deps).PauseTaskCmd)
	case "resume":
		return runTaskTransition(args[1:], stdout, stderr, (*deps).ResumeTaskCmd)
	case "discard":
		return runTaskTransition(args[1:], stdout, stderr, (*deps).DiscardTaskCmd)
	default:
		fmt.Fprintf(stderr, "Unknown task subcommand: %s\n", args[0])
		return 2
	}
}

func runTaskCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("task create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "task title (REQUIRED)")
	description := fs.String("description", "", "task description")
	priority := fs.String("priority", "", "task priority")
	tags := fs.String("tags", "", "comma-separated tags")
	actor := fs.String("actor", "", "actor id authoring this task (defaults to current actor)")
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
	rec, err := d.backlog.CreateTask(context.Background(), contracts.TaskPayload{
		Title:       *title,
		Description: *description,
		Priority:    *priority,
		Tags:        tagList,
		Status:      contracts.TaskStatusDraft,
	}, actorID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

func runTaskGet(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov task get <id>")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	rec, err := d.backlog.GetTask(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if rec == nil {
		fmt.Fprintf(stderr, "Task %q not found\n", args[0])
		return 1
	}
	return printJSON(stdout, rec)
}

func runTaskList(_ []string, stdout, stderr io.Writer) int {
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	tasks, err := listAll(context.Background(), d.taskSt)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, tasks)
}

// runTaskTransition is shared by every lifecycle verb: --id identifies the
// task, --actor defaults to the session's current actor.
func runTaskTransition(args []string, stdout, stderr io.Writer, verb func(d *deps, id, actor string) (contracts.TaskRecord, error)) int {
	fs := flag.NewFlagSet("task transition", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.String("id", "", "task id (REQUIRED)")
	actor := fs.String("actor", "", "actor id performing the transition (defaults to current actor)")
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
	rec, err := verb(d, *id, actorID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

func (d *deps) SubmitTaskCmd(id, actor string) (contracts.TaskRecord, error) {
	return d.backlog.SubmitTask(context.Background(), id, actor)
}

func (d *deps) ApproveTaskCmd(id, actor string) (contracts.TaskRecord, error) {
	return d.backlog.ApproveTask(context.Background(), id, actor)
}

func (d *deps) ActivateTaskCmd(id, actor string) (contracts.TaskRecord, error) {
	return d.backlog.ActivateTask(context.Background(), id, actor)
}

func (d *deps) CompleteTaskCmd(id, actor string) (contracts.TaskRecord, error) {
	return d.backlog.CompleteTask(context.Background(), id, actor)
}

func (d *deps) PauseTaskCmd(id, actor string) (contracts.TaskRecord, error) {
	return d.backlog.PauseTask(context.Background(), id, actor)
}

func (d *deps) ResumeTaskCmd(id, actor string) (contracts.TaskRecord, error) {
	return d.backlog.ResumeTask(context.Background(), id, actor)
}

func (d *deps) DiscardTaskCmd(id, actor string) (contracts.TaskRecord, error) {
	return d.backlog.DiscardTask(context.Background(), id, actor)
}
