package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/gitgovernance/core/pkg/contracts"
)

func dispatchFeedback(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov feedback <create|resolve|get> [flags]")
		return 2
	}
	switch args[0] {
	case "create":
		return runFeedbackCreate(args[1:], stdout, stderr)
	case "resolve":
		return runFeedbackResolve(args[1:], stdout, stderr)
	case "get":
		return runFeedbackGet(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown feedback subcommand: %s\n", args[0])
		return 2
	}
}

func runFeedbackCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("feedback create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	entityType := fs.String("entity-type", "task", "task|execution|changelog|feedback")
	entityID := fs.String("entity-id", "", "id of the entity this feedback targets (REQUIRED)")
	feedbackType := fs.String("type", "blocking", "blocking|suggestion|question|assignment|approval|rejection|clarification")
	content := fs.String("content", "", "feedback body (REQUIRED)")
	title := fs.String("title", "", "feedback title")
	assignee := fs.String("assignee", "", "actor id to assign (type=assignment)")
	actor := fs.String("actor", "", "actor id authoring this feedback (defaults to current actor)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *entityID == "" || *content == "" {
		fmt.Fprintln(stderr, "Error: --entity-id and --content are required")
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
	rec, err := d.feedback.Create(context.Background(), contracts.FeedbackPayload{
		EntityType: contracts.FeedbackEntityType(*entityType),
		EntityID:   *entityID,
		Type:       contracts.FeedbackType(*feedbackType),
		Status:     contracts.FeedbackStatusOpen,
		Content:    *content,
		Assignee:   *assignee,
	}, *title, actorID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

func runFeedbackResolve(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("feedback resolve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.String("id", "", "feedback id to resolve (REQUIRED)")
	note := fs.String("note", "", "resolution note")
	actor := fs.String("actor", "", "actor id resolving this feedback (defaults to current actor)")
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
	rec, err := d.feedback.Resolve(context.Background(), *id, actorID, *note)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(stdout, rec)
}

func runFeedbackGet(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: gitgov feedback get <id>")
		return 2
	}
	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer d.bus.WaitForIdle()
	rec, err := d.feedback.GetFeedback(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if rec == nil {
		fmt.Fprintf(stderr, "Feedback %q not found\n", args[0])
		return 1
	}
	return printJSON(stdout, rec)
}
