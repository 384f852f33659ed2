// Package config loads GitGov's workspace configuration: env var overrides
// layered over a config.json default, following the teacher's
// env-with-hardcoded-default pattern.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gitgovernance/core/pkg/backlog"
	"github.com/gitgovernance/core/pkg/gitgoverr"
	"github.com/gitgovernance/core/pkg/observability"
)

// Config holds the process-wide GitGov settings. Adapters never read
// environment variables directly (spec §5's "Global state" note); they
// receive values resolved here.
type Config struct {
	GitgovHome    string
	LogLevel      string
	Methodology   string // "kanban" | "scrum" | a path to a custom document
	Health        backlog.Config
	Observability observability.Config
}

const (
	defaultGitgovHome  = ".gitgov"
	defaultLogLevel    = "INFO"
	defaultMethodology = "kanban"
)

// fileConfig is the on-disk shape of .gitgov/config.json.
type fileConfig struct {
	Methodology string `json:"methodology,omitempty"`
	Health      *struct {
		TaskMinScore   int     `json:"taskMinScore"`
		MaxDaysInStage float64 `json:"maxDaysInStage"`
		SystemMinScore int     `json:"systemMinScore"`
	} `json:"healthThresholds,omitempty"`
}

// Load resolves Config from GITGOV_HOME/config.json, overlaid by
// environment variables, falling back to defaults for anything unset.
// A missing config.json is not an error: a freshly initialized workspace
// has none yet.
func Load() (*Config, error) {
	cfg := &Config{
		GitgovHome:    os.Getenv("GITGOV_HOME"),
		LogLevel:      os.Getenv("GITGOV_LOG_LEVEL"),
		Methodology:   os.Getenv("GITGOV_METHODOLOGY"),
		Health:        backlog.DefaultConfig(),
		Observability: observabilityConfigFromEnv(),
	}
	if cfg.GitgovHome == "" {
		cfg.GitgovHome = defaultGitgovHome
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	path := filepath.Join(cfg.GitgovHome, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if cfg.Methodology == "" {
				cfg.Methodology = defaultMethodology
			}
			return cfg, nil
		}
		return nil, gitgoverr.Wrap(gitgoverr.KindIOError, "config.Load", "read config.json", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, gitgoverr.Wrap(gitgoverr.KindInvalidData, "config.Load", "parse config.json", err)
	}
	if cfg.Methodology == "" {
		cfg.Methodology = fc.Methodology
	}
	if cfg.Methodology == "" {
		cfg.Methodology = defaultMethodology
	}
	if fc.Health != nil {
		cfg.Health = backlog.Config{
			TaskMinScore:   fc.Health.TaskMinScore,
			MaxDaysInStage: fc.Health.MaxDaysInStage,
			SystemMinScore: fc.Health.SystemMinScore,
		}
	}
	return cfg, nil
}

// observabilityConfigFromEnv builds an OpenTelemetry config off
// DefaultConfig, disabled unless GITGOV_OTEL_ENABLED is set — a local CLI
// run has no collector listening by default.
func observabilityConfigFromEnv() observability.Config {
	oc := *observability.DefaultConfig()
	oc.Enabled = os.Getenv("GITGOV_OTEL_ENABLED") == "true"
	if endpoint := os.Getenv("GITGOV_OTEL_ENDPOINT"); endpoint != "" {
		oc.OTLPEndpoint = endpoint
	}
	return oc
}

// Save writes cfg's file-backed fields to GITGOV_HOME/config.json with
// 2-space indentation, matching the Record envelope's on-disk convention
// (spec §6).
func Save(cfg *Config) error {
	fc := fileConfig{Methodology: cfg.Methodology}
	fc.Health = &struct {
		TaskMinScore   int     `json:"taskMinScore"`
		MaxDaysInStage float64 `json:"maxDaysInStage"`
		SystemMinScore int     `json:"systemMinScore"`
	}{cfg.Health.TaskMinScore, cfg.Health.MaxDaysInStage, cfg.Health.SystemMinScore}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return gitgoverr.Wrap(gitgoverr.KindInvalidData, "config.Save", "marshal", err)
	}
	if err := os.MkdirAll(cfg.GitgovHome, 0o755); err != nil {
		return gitgoverr.Wrap(gitgoverr.KindIOError, "config.Save", "mkdir", err)
	}
	path := filepath.Join(cfg.GitgovHome, "config.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return gitgoverr.Wrap(gitgoverr.KindIOError, "config.Save", "write config.json", err)
	}
	return nil
}
