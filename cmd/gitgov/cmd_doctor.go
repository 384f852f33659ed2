package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gitgovernance/core/pkg/config"
)

// runDoctor checks that the workspace is structurally sound: every
// record-kind directory exists, config.json parses, and the configured
// methodology document loads, mirroring the teacher's "doctor" checklist
// style (print each check; a config that fails to load stops at once, every
// other check runs to the end and any failure makes the exit code 1).
func runDoctor(_ []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "%sFAIL%s config.Load: %v\n", ColorRed, ColorReset, err)
		return 1
	}
	fmt.Fprintf(stdout, "%sOK%s   config loaded (home=%s, methodology=%s)\n", ColorGreen, ColorReset, cfg.GitgovHome, cfg.Methodology)

	ok := true
	for _, kind := range []string{"actors", "agents", "tasks", "cycles", "feedback", "executions", "changelogs"} {
		dir := filepath.Join(cfg.GitgovHome, kind)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			fmt.Fprintf(stdout, "%sFAIL%s %s/ missing (run `gitgov init`)\n", ColorRed, ColorReset, dir)
			ok = false
			continue
		}
		fmt.Fprintf(stdout, "%sOK%s   %s/\n", ColorGreen, ColorReset, dir)
	}

	logger := newLogger(cfg.LogLevel)
	if _, err := loadMethodology(cfg.Methodology, logger); err != nil {
		fmt.Fprintf(stdout, "%sFAIL%s methodology %q: %v\n", ColorRed, ColorReset, cfg.Methodology, err)
		ok = false
	} else {
		fmt.Fprintf(stdout, "%sOK%s   methodology %q loads\n", ColorGreen, ColorReset, cfg.Methodology)
	}

	if !ok {
		return 1
	}
	return 0
}
