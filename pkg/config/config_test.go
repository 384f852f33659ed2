package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitgovernance/core/pkg/backlog"
)

func TestLoad_DefaultsWhenConfigFileAbsent(t *testing.T) {
	t.Setenv("GITGOV_HOME", filepath.Join(t.TempDir(), "missing"))
	t.Setenv("GITGOV_LOG_LEVEL", "")
	t.Setenv("GITGOV_METHODOLOGY", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, defaultLogLevel, cfg.LogLevel)
	require.Equal(t, defaultMethodology, cfg.Methodology)
	require.Equal(t, 40, cfg.Health.TaskMinScore)
}

func TestSaveThenLoad_RoundTripsHealthThresholds(t *testing.T) {
	home := t.TempDir()
	t.Setenv("GITGOV_HOME", home)
	t.Setenv("GITGOV_LOG_LEVEL", "")
	t.Setenv("GITGOV_METHODOLOGY", "")

	cfg, err := Load()
	require.NoError(t, err)
	cfg.Methodology = "scrum"
	cfg.Health.TaskMinScore = 55
	require.NoError(t, Save(cfg))

	reloaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, "scrum", reloaded.Methodology)
	require.Equal(t, 55, reloaded.Health.TaskMinScore)
}

func TestLoad_EnvOverridesFileMethodology(t *testing.T) {
	home := t.TempDir()
	t.Setenv("GITGOV_HOME", home)
	t.Setenv("GITGOV_LOG_LEVEL", "")
	require.NoError(t, Save(&Config{GitgovHome: home, Methodology: "scrum", Health: backlog.DefaultConfig()}))

	t.Setenv("GITGOV_METHODOLOGY", "kanban")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "kanban", cfg.Methodology)
}
