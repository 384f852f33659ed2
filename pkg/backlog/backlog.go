// Package backlog implements the Backlog Adapter: the facade that owns
// Task/Cycle CRUD, drives every lifecycle transition through the Workflow
// Methodology, maintains the bidirectional Task<->Cycle link invariant, and
// reacts to the shared event bus (spec §4.8).
package backlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/crypto"
	"github.com/gitgovernance/core/pkg/eventbus"
	"github.com/gitgovernance/core/pkg/feedback"
	"github.com/gitgovernance/core/pkg/gitgoverr"
	"github.com/gitgovernance/core/pkg/identity"
	"github.com/gitgovernance/core/pkg/methodology"
	"github.com/gitgovernance/core/pkg/metrics"
	"github.com/gitgovernance/core/pkg/records"
	"github.com/gitgovernance/core/pkg/session"
	"github.com/gitgovernance/core/pkg/store"
)

// Config is the Backlog-level tuning knob spec §4.8 names: the health
// thresholds handleDailyTick compares getSystemStatus against.
type Config struct {
	TaskMinScore   int
	MaxDaysInStage float64
	SystemMinScore int
}

// DefaultConfig matches the bundled kanban methodology's expectations: a
// task below 40 or idle more than 14 days is flagged for a suggestion.
func DefaultConfig() Config {
	return Config{TaskMinScore: 40, MaxDaysInStage: 14, SystemMinScore: 50}
}

// Adapter is the Backlog facade. SessionManager is retained for CLI-level
// "current actor" convenience callers; the transition algorithm itself
// always takes an explicit actorID and never consults the session.
type Adapter struct {
	tasks      store.Store[contracts.TaskRecord]
	cycles     store.Store[contracts.CycleRecord]
	feedback   *feedback.Adapter
	feedbackSt store.Store[contracts.FeedbackRecord]

	identity   *identity.Adapter
	workflow   *methodology.Adapter
	metrics    *metrics.Adapter
	bus        *eventbus.Bus
	sessionMgr session.Manager

	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// New wires the facade and registers every reactive handler against bus.
// Feedback must be constructed before Backlog to break the documented
// Backlog<->Feedback cyclic-ownership at the wiring layer (spec §10):
// Backlog holds a *feedback.Adapter reference and also subscribes to the
// events Feedback publishes, but Feedback never references Backlog back.
func New(
	tasks store.Store[contracts.TaskRecord],
	cycles store.Store[contracts.CycleRecord],
	feedbackSt store.Store[contracts.FeedbackRecord],
	fb *feedback.Adapter,
	ident *identity.Adapter,
	workflow *methodology.Adapter,
	met *metrics.Adapter,
	bus *eventbus.Bus,
	sessionMgr session.Manager,
	cfg Config,
	now func() time.Time,
	logger *slog.Logger,
) *Adapter {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		tasks: tasks, cycles: cycles, feedback: fb, feedbackSt: feedbackSt,
		identity: ident, workflow: workflow, metrics: met, bus: bus, sessionMgr: sessionMgr,
		cfg: cfg, now: now, logger: logger,
	}
	if bus != nil {
		bus.Subscribe(contracts.EventFeedbackCreated, a.handleFeedbackCreated)
		bus.Subscribe(contracts.EventExecutionCreated, a.handleExecutionCreated)
		bus.Subscribe(contracts.EventChangelogCreated, a.handleChangelogCreated)
		bus.Subscribe(contracts.EventCycleStatusChanged, a.handleCycleStatusChanged)
		bus.Subscribe(contracts.EventSystemDailyTick, a.handleDailyTick)
	}
	return a
}

func (a *Adapter) publish(eventType contracts.EventType, payload map[string]any) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(contracts.Event{Type: eventType, TimestampMs: a.now().UnixMilli(), Source: "backlog", Payload: payload})
}

// --- Task / Cycle CRUD ---

// CreateTask builds, signs, and persists a new draft task.
func (a *Adapter) CreateTask(ctx context.Context, partial contracts.TaskPayload, actorID string) (contracts.TaskRecord, error) {
	const op = "Backlog.CreateTask"
	payload, err := records.BuildTaskPayload(partial, a.now().Unix())
	if err != nil {
		return contracts.TaskRecord{}, err
	}
	sum, err := crypto.Checksum(payload)
	if err != nil {
		return contracts.TaskRecord{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "checksum", err)
	}
	unsigned := contracts.TaskRecord{Header: contracts.NewHeader(contracts.KindTask, sum), Payload: payload}
	signed, err := identity.SignRecord(ctx, a.identity, unsigned, actorID, contracts.RoleAuthor, "")
	if err != nil {
		return contracts.TaskRecord{}, err
	}
	if err := a.tasks.Put(ctx, signed.Payload.ID, &signed); err != nil {
		return contracts.TaskRecord{}, err
	}
	return signed, nil
}

// GetTask returns nil, nil if the task doesn't exist.
func (a *Adapter) GetTask(ctx context.Context, id string) (*contracts.TaskRecord, error) {
	rec, err := a.tasks.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// UpdateTask applies mutate to a task's non-status fields and re-signs it.
// Status changes MUST go through the lifecycle verbs, never UpdateTask.
func (a *Adapter) UpdateTask(ctx context.Context, id string, mutate func(*contracts.TaskPayload), actorID string) (contracts.TaskRecord, error) {
	const op = "Backlog.UpdateTask"
	rec, err := a.tasks.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return contracts.TaskRecord{}, gitgoverr.New(gitgoverr.KindTaskNotFound, op, id)
		}
		return contracts.TaskRecord{}, err
	}
	status := rec.Payload.Status
	mutate(&rec.Payload)
	rec.Payload.Status = status
	if _, err := records.ValidateTaskPayload(rec.Payload); err != nil {
		return contracts.TaskRecord{}, err
	}
	signed, err := a.resign(ctx, *rec, actorID)
	if err != nil {
		return contracts.TaskRecord{}, err
	}
	taskRec := contracts.TaskRecord{Header: signed.Header, Payload: rec.Payload}
	if err := a.tasks.Put(ctx, id, &taskRec); err != nil {
		return contracts.TaskRecord{}, err
	}
	return taskRec, nil
}

// DeleteTask removes a task outright (administrative use; normal lifecycle
// end-states are done/archived/discarded, not deletion).
func (a *Adapter) DeleteTask(ctx context.Context, id string) error {
	return a.tasks.Delete(ctx, id)
}

// CreateCycle builds, signs, and persists a new planning cycle.
func (a *Adapter) CreateCycle(ctx context.Context, partial contracts.CyclePayload, actorID string) (contracts.CycleRecord, error) {
	const op = "Backlog.CreateCycle"
	payload, err := records.BuildCyclePayload(partial, a.now().Unix())
	if err != nil {
		return contracts.CycleRecord{}, err
	}
	sum, err := crypto.Checksum(payload)
	if err != nil {
		return contracts.CycleRecord{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "checksum", err)
	}
	unsigned := contracts.CycleRecord{Header: contracts.NewHeader(contracts.KindCycle, sum), Payload: payload}
	signed, err := identity.SignRecord(ctx, a.identity, unsigned, actorID, contracts.RoleAuthor, "")
	if err != nil {
		return contracts.CycleRecord{}, err
	}
	if err := a.cycles.Put(ctx, signed.Payload.ID, &signed); err != nil {
		return contracts.CycleRecord{}, err
	}
	return signed, nil
}

// GetCycle returns nil, nil if the cycle doesn't exist.
func (a *Adapter) GetCycle(ctx context.Context, id string) (*contracts.CycleRecord, error) {
	rec, err := a.cycles.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// UpdateCycle applies mutate to a cycle's fields (status changes publish
// EventCycleStatusChanged so handleCycleStatusChanged can propagate).
func (a *Adapter) UpdateCycle(ctx context.Context, id string, mutate func(*contracts.CyclePayload), actorID string) (contracts.CycleRecord, error) {
	const op = "Backlog.UpdateCycle"
	rec, err := a.cycles.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return contracts.CycleRecord{}, gitgoverr.New(gitgoverr.KindCycleNotFound, op, id)
		}
		return contracts.CycleRecord{}, err
	}
	before := rec.Payload.Status
	mutate(&rec.Payload)
	if _, err := records.ValidateCyclePayload(rec.Payload); err != nil {
		return contracts.CycleRecord{}, err
	}
	signed, err := a.resignCycle(ctx, *rec, actorID)
	if err != nil {
		return contracts.CycleRecord{}, err
	}
	if err := a.cycles.Put(ctx, id, &signed); err != nil {
		return contracts.CycleRecord{}, err
	}
	if before != signed.Payload.Status {
		a.publish(contracts.EventCycleStatusChanged, map[string]any{
			"cycleId": id, "from": string(before), "to": string(signed.Payload.Status),
		})
	}
	return signed, nil
}

// DeleteCycle removes a cycle outright.
func (a *Adapter) DeleteCycle(ctx context.Context, id string) error {
	return a.cycles.Delete(ctx, id)
}

func (a *Adapter) resign(ctx context.Context, rec contracts.TaskRecord, actorID string) (contracts.TaskRecord, error) {
	return identity.SignRecord(ctx, a.identity, rec, actorID, contracts.RoleAuthor, "")
}

func (a *Adapter) resignCycle(ctx context.Context, rec contracts.CycleRecord, actorID string) (contracts.CycleRecord, error) {
	return identity.SignRecord(ctx, a.identity, rec, actorID, contracts.RoleAuthor, "")
}
