package methodology

import (
	"log/slog"

	"github.com/google/cel-go/cel"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

// Adapter evaluates transition legality against a loaded Document.
type Adapter struct {
	doc    Document
	logger *slog.Logger
}

// New binds an Adapter to an already-loaded, already-validated document.
func New(doc Document, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{doc: doc, logger: logger}
}

// CreateDefault returns an Adapter bound to the bundled kanban methodology.
func CreateDefault(logger *slog.Logger) (*Adapter, error) {
	doc, err := LoadKanban()
	if err != nil {
		return nil, err
	}
	return New(doc, logger), nil
}

// CreateScrum returns an Adapter bound to the bundled scrum methodology.
func CreateScrum(logger *slog.Logger) (*Adapter, error) {
	doc, err := LoadScrum()
	if err != nil {
		return nil, err
	}
	return New(doc, logger), nil
}

// Document returns the bound methodology document (read-only use, e.g. by
// the CLI to render view_configs).
func (a *Adapter) Document() Document { return a.doc }

// Context carries everything a transition-rule evaluation needs. Workflow
// Methodology never reads a store directly (mirrors Record Model not
// depending on Identity): the Backlog Adapter, which does hold store
// references, populates this before calling into methodology.
type Context struct {
	TransitionTo string
	Task         contracts.TaskPayload
	Actor        contracts.ActorPayload
	Signature    *contracts.Signature
	Signatures   []contracts.Signature

	// ActiveCycleReferenced is precomputed by the caller: true if task
	// references at least one cycle currently in status "active"
	// (sprint_capacity).
	ActiveCycleReferenced bool
	// ResolvedAssignmentExists is precomputed by the caller: true if a
	// resolved "assignment" feedback exists for the task
	// (assignment_required).
	ResolvedAssignmentExists bool
	// ChildCycleCount is precomputed by the caller: number of child cycles
	// of cycles the task belongs to (epic_complexity).
	ChildCycleCount int
}

// GetTransitionRule returns the requires block for to, or nil if to doesn't
// exist or from isn't a listed source state.
func (a *Adapter) GetTransitionRule(from, to string) *TransitionRequirements {
	entry, ok := a.doc.StateTransitions[to]
	if !ok {
		return nil
	}
	for _, f := range entry.From {
		if f == from {
			req := entry.Requires
			return &req
		}
	}
	return nil
}

// GetAvailableTransitions enumerates every legal target state from `from`.
func (a *Adapter) GetAvailableTransitions(from string) []TransitionRequirements {
	var out []TransitionRequirements
	for to, entry := range a.doc.StateTransitions {
		for _, f := range entry.From {
			if f == from {
				out = append(out, entry.Requires)
				break
			}
		}
		_ = to
	}
	return out
}

// ValidateSignature checks signature against the rule group for
// ctx.TransitionTo, per spec §4.7's four-part test.
func (a *Adapter) ValidateSignature(signature contracts.Signature, ctx Context) (bool, error) {
	const op = "Workflow.ValidateSignature"
	if ctx.TransitionTo == "" {
		return false, gitgoverr.New(gitgoverr.KindMissingTransitionTo, op, "context.transitionTo is required")
	}

	entry, ok := a.doc.StateTransitions[ctx.TransitionTo]
	if !ok {
		return false, nil
	}
	fromOK := false
	for _, f := range entry.From {
		if f == string(ctx.Task.Status) {
			fromOK = true
			break
		}
	}
	if !fromOK {
		return false, nil
	}

	rule := selectSignatureRule(entry.Requires.Signatures, ctx.Actor.Roles)
	if rule == nil {
		return false, nil
	}
	if signature.Role != rule.Role {
		return false, nil
	}
	if !rolesIntersect(ctx.Actor.Roles, rule.CapabilityRoles) {
		return false, nil
	}

	qualifying := ctx.Signatures
	if len(qualifying) == 0 {
		qualifying = []contracts.Signature{signature}
	}
	count := 0
	for _, s := range qualifying {
		if s.Role == rule.Role {
			count++
		}
	}
	return count >= rule.MinApprovals, nil
}

// ResolveSignatureRole picks the signature-rule group applicable to
// actorRoles for the transition into `to` and returns the role string the
// caller should sign with. ok is false if `to` isn't a known transition or
// no group applies to actorRoles.
func (a *Adapter) ResolveSignatureRole(to string, actorRoles []string) (string, bool) {
	entry, ok := a.doc.StateTransitions[to]
	if !ok {
		return "", false
	}
	rule := selectSignatureRule(entry.Requires.Signatures, actorRoles)
	if rule == nil {
		return "", false
	}
	return rule.Role, true
}

// selectSignatureRule finds the rule group whose capability_roles
// intersect actorRoles, falling back to __default__.
func selectSignatureRule(groups map[string]SignatureRule, actorRoles []string) *SignatureRule {
	for name, rule := range groups {
		if name == "__default__" {
			continue
		}
		if rolesIntersect(actorRoles, rule.CapabilityRoles) {
			r := rule
			return &r
		}
	}
	if rule, ok := groups["__default__"]; ok {
		return &rule
	}
	return nil
}

func rolesIntersect(a, b []string) bool {
	set := make(map[string]struct{}, len(b))
	for _, r := range b {
		set[r] = struct{}{}
	}
	for _, r := range a {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

// hasTag reports whether tags contains a tag with the given prefix, e.g.
// hasTag(tags, "epic:") matches "epic:payments".
func hasTag(tags []string, prefix string) bool {
	for _, t := range tags {
		if len(t) >= len(prefix) && t[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// ValidateCustomRules evaluates every named rule; all must pass. Unknown
// rule ids fail closed (logged, return false).
func (a *Adapter) ValidateCustomRules(ruleIDs []string, ctx Context) bool {
	for _, id := range ruleIDs {
		def, ok := a.doc.CustomRules[id]
		if !ok {
			a.logger.Warn("methodology: unknown custom rule id", "ruleId", id)
			return false
		}
		if !a.evaluateRule(id, def, ctx) {
			return false
		}
	}
	return true
}

func (a *Adapter) evaluateRule(id string, def CustomRuleDef, ctx Context) bool {
	switch def.Validation {
	case ValidationAssignmentRequired:
		return ctx.ResolvedAssignmentExists
	case ValidationSprintCapacity:
		return ctx.ActiveCycleReferenced
	case ValidationEpicComplexity:
		if !hasTag(ctx.Task.Tags, "epic:") {
			return true
		}
		return ctx.Task.Status == contracts.TaskStatusPaused && ctx.ChildCycleCount >= 1
	case ValidationCustom:
		ok, err := evaluateCEL(def.Expression, ctx)
		if err != nil {
			a.logger.Warn("methodology: custom rule CEL evaluation failed, passing by extension-point default", "ruleId", id, "err", err)
			return true
		}
		return ok
	default:
		a.logger.Warn("methodology: unknown validation variant", "ruleId", id, "validation", def.Validation)
		return false
	}
}

// evaluateCEL compiles and runs a user-supplied CEL boolean expression
// against the task/actor fields of ctx, for the "custom" rule-validation
// extension point.
func evaluateCEL(expression string, ctx Context) (bool, error) {
	env, err := cel.NewEnv(
		cel.Variable("task_status", cel.StringType),
		cel.Variable("task_tags", cel.ListType(cel.StringType)),
		cel.Variable("actor_roles", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return false, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]interface{}{
		"task_status": ctx.Task.Status.String(),
		"task_tags":   ctx.Task.Tags,
		"actor_roles": ctx.Actor.Roles,
	})
	if err != nil {
		return false, err
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, nil
	}
	return result, nil
}
