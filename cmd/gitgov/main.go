// Command gitgov is the GitGov CLI: it wires every adapter against a
// filesystem-backed .gitgov workspace and exposes one subcommand per
// adapter operation, following the teacher's testable Run(args, stdout,
// stderr) dispatcher.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gitgovernance/core/pkg/config"
	"github.com/gitgovernance/core/pkg/observability"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing: no subprocess, no os.Exit.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stdout)
		return 0
	}
	cmd := args[1]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		printUsage(stdout)
		return 0
	}

	ctx := context.Background()
	cfg, _ := config.Load()
	var obsCfg *observability.Config
	if cfg != nil {
		obsCfg = &cfg.Observability
	}
	provider, err := observability.New(ctx, obsCfg, newLogger(obsLogLevel(cfg)))
	if err != nil {
		fmt.Fprintf(stderr, "Warning: observability init failed: %v\n", err)
		provider, _ = observability.New(ctx, &observability.Config{Enabled: false}, nil)
	}
	defer provider.Shutdown(ctx)

	_, end := provider.TrackOperation(ctx, "gitgov."+cmd, attribute.String("gitgov.args", fmt.Sprint(args[2:])))
	code := dispatch(cmd, args[2:], stdout, stderr)
	if code != 0 {
		end(fmt.Errorf("command %q exited with code %d", cmd, code))
	} else {
		end(nil)
	}
	return code
}

func obsLogLevel(cfg *config.Config) string {
	if cfg == nil {
		return "INFO"
	}
	return cfg.LogLevel
}

// dispatch routes a subcommand to its handler, split out of Run so
// observability can wrap the whole call uniformly.
func dispatch(cmd string, args []string, stdout, stderr io.Writer) int {
	switch cmd {
	case "init":
		return runInit(args, stdout, stderr)
	case "actor":
		return dispatchActor(args, stdout, stderr)
	case "agent":
		return dispatchAgent(args, stdout, stderr)
	case "task":
		return dispatchTask(args, stdout, stderr)
	case "cycle":
		return dispatchCycle(args, stdout, stderr)
	case "feedback":
		return dispatchFeedback(args, stdout, stderr)
	case "execution":
		return dispatchExecution(args, stdout, stderr)
	case "changelog":
		return dispatchChangelog(args, stdout, stderr)
	case "status":
		return runStatus(args, stdout, stderr)
	case "health":
		return runHealth(args, stdout, stderr)
	case "lint":
		return runLint(args, stdout, stderr)
	case "audit":
		return runAudit(args, stdout, stderr)
	case "mirror":
		return dispatchMirror(args, stdout, stderr)
	case "doctor":
		return runDoctor(args, stdout, stderr)
	case "daemon":
		return runDaemon(args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		printUsage(stderr)
		return 2
	}
}

// ANSI colors, matching the teacher CLI's palette.
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[37m"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sGitGov%s\n", ColorBold+ColorBlue, ColorReset)
	fmt.Fprintf(w, "%sGit-native governance for autonomous and human work.%s\n", ColorGray, ColorReset)
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sUSAGE:%s\n", ColorBold, ColorReset)
	fmt.Fprintln(w, "  gitgov <command> [subcommand] [flags]")
	fmt.Fprintln(w, "")

	printSection(w, "WORKSPACE")
	printCommand(w, "init", "Initialize a .gitgov workspace and bootstrap actor")
	printCommand(w, "doctor", "Check workspace health and configuration")
	printCommand(w, "status", "Print system status (health score, backlog distribution, task count)")
	printCommand(w, "health", "Print a task's health score (--task)")
	printCommand(w, "lint", "List backlog hygiene warnings")
	printCommand(w, "audit", "Run the daily health audit now")
	printCommand(w, "daemon", "Run the daily-tick scheduler until interrupted (--tick-interval)")

	printSection(w, "RECORDS")
	printCommand(w, "actor", "Manage actors (create/list/get/revoke/rotate-key)")
	printCommand(w, "agent", "Manage agent manifests (create/list/get/archive/run)")
	printCommand(w, "task", "Manage tasks (create/get/list/lifecycle verbs)")
	printCommand(w, "cycle", "Manage cycles (create/get/list/add-task/...)")
	printCommand(w, "feedback", "Manage feedback (create/resolve/get)")
	printCommand(w, "execution", "Record executions (create/get)")
	printCommand(w, "changelog", "Record changelogs (create/get)")

	printSection(w, "DISASTER RECOVERY")
	printCommand(w, "mirror", "Back up or restore .gitgov (backup/restore)")

	printSection(w, "UTILITIES")
	printCommand(w, "help", "Show this help")
	fmt.Fprintln(w, "")
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s:%s\n", ColorBold+ColorCyan, title, ColorReset)
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %s%-12s%s %s\n", ColorGreen, name, ColorReset, desc)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
