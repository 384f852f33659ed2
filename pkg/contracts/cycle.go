package contracts

// CycleStatus is the Cycle lifecycle state.
type CycleStatus string

const (
	CycleStatusPlanning  CycleStatus = "planning"
	CycleStatusActive    CycleStatus = "active"
	CycleStatusCompleted CycleStatus = "completed"
	CycleStatusArchived  CycleStatus = "archived"
)

// CyclePayload is the CycleRecord payload. Id is "{epochSeconds}-cycle-{slug}".
// TaskIDs is the forward reference side of the bidirectional Task<->Cycle
// link invariant.
type CyclePayload struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Status        CycleStatus `json:"status"`
	TaskIDs       []string    `json:"taskIds,omitempty"`
	ChildCycleIDs []string    `json:"childCycleIds,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
}

// CycleRecord is the full signed envelope for a cycle.
type CycleRecord = Record[CyclePayload]
