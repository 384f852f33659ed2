package contracts

// EventType names one of the bus's defined event kinds. Handlers match on
// these strings; the set is open (new adapters may publish new kinds) but
// the core only reacts to the ones listed below.
type EventType string

const (
	EventActorCreated       EventType = "identity.actor.created"
	EventActorRevoked       EventType = "identity.actor.revoked"
	EventAgentRegistered    EventType = "identity.agent.registered"
	EventFeedbackCreated    EventType = "feedback.created"
	EventFeedbackStatusChanged EventType = "feedback.status.changed"
	EventExecutionCreated   EventType = "execution.created"
	EventChangelogCreated   EventType = "changelog.created"
	EventCycleStatusChanged EventType = "cycle.status.changed"
	EventSystemDailyTick    EventType = "system.daily_tick"
)

// Event is the tagged unit of history flowing through the bus. TimestampMs
// is epoch milliseconds; Source names the publishing adapter.
type Event struct {
	Type      EventType      `json:"type"`
	TimestampMs int64        `json:"timestamp"`
	Source    string         `json:"source"`
	Payload   map[string]any `json:"payload"`
}
