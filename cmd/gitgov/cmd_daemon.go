package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/gitgovernance/core/pkg/eventbus"
)

// runDaemon runs the long-lived side of GitGov that the rest of the CLI's
// one-shot commands can't: a DailyTicker publishing system.daily_tick,
// which pkg/backlog's handleDailyTick consumes to raise suggestion
// feedback for unhealthy tasks. Grounded on the teacher's runServer's
// signal.Notify/block/shutdown shape (core/cmd/helm/main.go).
func runDaemon(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(stderr)
	interval := fs.Duration("tick-interval", 24*time.Hour, "how often to publish system.daily_tick")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	d, err := loadDeps()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ticker := eventbus.NewDailyTicker(d.bus, *interval, "gitgov daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "%sGitGov daemon started%s (tick every %s, Ctrl-C to stop)\n", ColorBold+ColorGreen, ColorReset, *interval)
	ticker.Run(ctx, *interval)
	d.bus.WaitForIdle()
	fmt.Fprintln(stdout, "GitGov daemon stopped")
	return 0
}
