package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/gitgovernance/core/pkg/agent"
	"github.com/gitgovernance/core/pkg/backlog"
	"github.com/gitgovernance/core/pkg/changelog"
	"github.com/gitgovernance/core/pkg/config"
	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/eventbus"
	"github.com/gitgovernance/core/pkg/execution"
	"github.com/gitgovernance/core/pkg/feedback"
	"github.com/gitgovernance/core/pkg/identity"
	"github.com/gitgovernance/core/pkg/keyprovider"
	"github.com/gitgovernance/core/pkg/methodology"
	"github.com/gitgovernance/core/pkg/metrics"
	"github.com/gitgovernance/core/pkg/session"
	"github.com/gitgovernance/core/pkg/store"
)

// deps is every adapter the CLI needs, wired once per invocation against
// the resolved GITGOV_HOME. Feedback is constructed before Backlog to
// break the documented Backlog<->Feedback cyclic ownership (spec §10),
// mirroring pkg/backlog.New's doc comment.
type deps struct {
	cfg      *config.Config
	logger   *slog.Logger
	bus      *eventbus.Bus
	identity *identity.Adapter
	agent    *agent.Adapter
	feedback *feedback.Adapter
	exec     *execution.Adapter
	changelg *changelog.Adapter
	workflow *methodology.Adapter
	metrics  *metrics.Adapter
	backlog  *backlog.Adapter

	taskSt  store.Store[contracts.TaskRecord]
	cycleSt store.Store[contracts.CycleRecord]
}

// loadDeps loads Config and builds the full dependency graph against
// <GitgovHome>/<kind>/ filesystem stores, one directory per record kind
// (spec §6's fixed on-disk layout).
func loadDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)

	actorSt, err := store.NewFS[contracts.ActorRecord](filepath.Join(cfg.GitgovHome, "actors"))
	if err != nil {
		return nil, fmt.Errorf("open actors store: %w", err)
	}
	agentSt, err := store.NewFS[contracts.AgentRecord](filepath.Join(cfg.GitgovHome, "agents"))
	if err != nil {
		return nil, fmt.Errorf("open agents store: %w", err)
	}
	taskSt, err := store.NewFS[contracts.TaskRecord](filepath.Join(cfg.GitgovHome, "tasks"))
	if err != nil {
		return nil, fmt.Errorf("open tasks store: %w", err)
	}
	cycleSt, err := store.NewFS[contracts.CycleRecord](filepath.Join(cfg.GitgovHome, "cycles"))
	if err != nil {
		return nil, fmt.Errorf("open cycles store: %w", err)
	}
	feedbackSt, err := store.NewFS[contracts.FeedbackRecord](filepath.Join(cfg.GitgovHome, "feedback"))
	if err != nil {
		return nil, fmt.Errorf("open feedback store: %w", err)
	}
	execSt, err := store.NewFS[contracts.ExecutionRecord](filepath.Join(cfg.GitgovHome, "executions"))
	if err != nil {
		return nil, fmt.Errorf("open executions store: %w", err)
	}
	changelogSt, err := store.NewFS[contracts.ChangelogRecord](filepath.Join(cfg.GitgovHome, "changelogs"))
	if err != nil {
		return nil, fmt.Errorf("open changelogs store: %w", err)
	}

	keys, err := loadKeyProvider(cfg)
	if err != nil {
		return nil, err
	}
	sessMgr := session.NewFS(cfg.GitgovHome)
	bus := eventbus.New(logger)

	identityAdapter := identity.New(actorSt, keys, sessMgr, bus, logger)
	agentAdapter := agent.New(agentSt, identityAdapter, bus, logger)
	feedbackAdapter := feedback.New(feedbackSt, identityAdapter, bus, logger)
	execAdapter := execution.New(execSt, identityAdapter, bus, logger)
	changelogAdapter := changelog.New(changelogSt, identityAdapter, bus, logger)

	workflow, err := loadMethodology(cfg.Methodology, logger)
	if err != nil {
		return nil, err
	}

	metricsAdapter := metrics.New(taskSt, feedbackSt, execSt, agentSt, nil, logger)
	backlogAdapter := backlog.New(taskSt, cycleSt, feedbackSt, feedbackAdapter, identityAdapter, workflow, metricsAdapter, bus, sessMgr, cfg.Health, nil, logger)

	return &deps{
		cfg: cfg, logger: logger, bus: bus,
		identity: identityAdapter, agent: agentAdapter, feedback: feedbackAdapter,
		exec: execAdapter, changelg: changelogAdapter, workflow: workflow,
		metrics: metricsAdapter, backlog: backlogAdapter,
		taskSt: taskSt, cycleSt: cycleSt,
	}, nil
}

// loadKeyProvider picks Redis when GITGOV_KEY_REDIS_ADDR is set (multi-node
// deployments that need actor keys reachable from any process), else FS
// when GITGOV_KEY_PASSPHRASE is set (the durable, single-node encrypted-
// at-rest default), else falls back to the env provider for CI/ephemeral
// use where keys live in the process environment rather than on disk.
func loadKeyProvider(cfg *config.Config) (keyprovider.KeyProvider, error) {
	pass := os.Getenv("GITGOV_KEY_PASSPHRASE")
	if addr := os.Getenv("GITGOV_KEY_REDIS_ADDR"); addr != "" {
		if pass == "" {
			return nil, fmt.Errorf("GITGOV_KEY_REDIS_ADDR requires GITGOV_KEY_PASSPHRASE")
		}
		prefix := os.Getenv("GITGOV_KEY_REDIS_PREFIX")
		if prefix == "" {
			prefix = "gitgov:keys:"
		}
		client := redis.NewClient(&redis.Options{Addr: addr})
		return keyprovider.NewRedis(client, prefix, []byte(pass))
	}
	if pass != "" {
		return keyprovider.NewFS(filepath.Join(cfg.GitgovHome, "keys"), []byte(pass))
	}
	return keyprovider.NewEnv("GITGOV_KEY"), nil
}

// loadMethodology resolves "kanban"/"scrum"/a path to a custom document
// into a *methodology.Adapter, per spec §4.7's bundled-vs-custom split.
func loadMethodology(name string, logger *slog.Logger) (*methodology.Adapter, error) {
	switch name {
	case "", "kanban":
		return methodology.CreateDefault(logger)
	case "scrum":
		return methodology.CreateScrum(logger)
	default:
		doc, err := methodology.LoadFile(name)
		if err != nil {
			return nil, fmt.Errorf("load methodology %s: %w", name, err)
		}
		return methodology.New(doc, logger), nil
	}
}

// resolveActor returns the --actor flag value if set, otherwise the
// session's current actor (spec §4.4's getCurrentActor fallback chain).
func (d *deps) resolveActor(actorFlag string) (string, error) {
	if actorFlag != "" {
		return actorFlag, nil
	}
	current, err := d.identity.GetCurrentActor(context.Background())
	if err != nil {
		return "", fmt.Errorf("no --actor given and no current actor: %w", err)
	}
	return current.Payload.ID, nil
}
