// Package methodology implements the Workflow Methodology (spec §4.7): a
// JSON-declared state machine of transitions, signature gates, and custom
// predicate rules, loaded from a bundled or user-supplied document and
// validated against a schema and a compatible-version gate.
package methodology

// SignatureRule describes who may produce a qualifying signature for one
// transition's signature group.
type SignatureRule struct {
	Role            string   `json:"role"`
	CapabilityRoles []string `json:"capability_roles"`
	MinApprovals    int      `json:"min_approvals"`
}

// TransitionRequirements is the "requires" block of one state_transitions
// entry.
type TransitionRequirements struct {
	Command     string                   `json:"command,omitempty"`
	Event       string                   `json:"event,omitempty"`
	Signatures  map[string]SignatureRule `json:"signatures,omitempty"`
	CustomRules []string                 `json:"custom_rules,omitempty"`
}

// TransitionEntry is one "<toState>" entry of state_transitions.
type TransitionEntry struct {
	From     []string                `json:"from"`
	Requires TransitionRequirements `json:"requires"`
}

// CustomRuleValidation names a built-in custom-rule semantics (spec §4.7).
type CustomRuleValidation string

const (
	ValidationAssignmentRequired CustomRuleValidation = "assignment_required"
	ValidationSprintCapacity     CustomRuleValidation = "sprint_capacity"
	ValidationEpicComplexity     CustomRuleValidation = "epic_complexity"
	ValidationCustom             CustomRuleValidation = "custom"
)

// CustomRuleDef is one entry of the document's custom_rules map.
type CustomRuleDef struct {
	Validation CustomRuleValidation `json:"validation"`
	Expression string               `json:"expression,omitempty"` // CEL source, validation=="custom"
}

// ViewConfig is a UI hint describing a kanban-style column layout; the core
// carries it through unused (ownership is the TUI/CLI's).
type ViewConfig struct {
	Columns map[string][]string `json:"columns"`
	Theme   string              `json:"theme,omitempty"`
	Layout  string              `json:"layout,omitempty"`
}

// Document is the full methodology JSON document shape (spec §4.7).
type Document struct {
	Name             string                     `json:"name"`
	Version          string                     `json:"version"`
	StateTransitions map[string]TransitionEntry `json:"state_transitions"`
	CustomRules      map[string]CustomRuleDef   `json:"custom_rules"`
	ViewConfigs      map[string]ViewConfig      `json:"view_configs,omitempty"`
}
