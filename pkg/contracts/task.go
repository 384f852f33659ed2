package contracts

// TaskStatus is one node of the workflow-methodology-governed state machine.
type TaskStatus string

const (
	TaskStatusDraft     TaskStatus = "draft"
	TaskStatusReview    TaskStatus = "review"
	TaskStatusReady     TaskStatus = "ready"
	TaskStatusActive    TaskStatus = "active"
	TaskStatusDone      TaskStatus = "done"
	TaskStatusPaused    TaskStatus = "paused"
	TaskStatusArchived  TaskStatus = "archived"
	TaskStatusDiscarded TaskStatus = "discarded"
)

// AllTaskStatuses is the closed, valid set used by Metrics' distribution and
// health calculations to ignore unknown statuses.
var AllTaskStatuses = []TaskStatus{
	TaskStatusDraft, TaskStatusReview, TaskStatusReady, TaskStatusActive,
	TaskStatusDone, TaskStatusPaused, TaskStatusArchived, TaskStatusDiscarded,
}

// TaskPayload is the TaskRecord payload. Id is "{epochSeconds}-task-{slug}".
type TaskPayload struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Status      TaskStatus             `json:"status"`
	Priority    string                 `json:"priority,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	References  []string               `json:"references,omitempty"`
	CycleIDs    []string               `json:"cycleIds,omitempty"`
	Notes       string                 `json:"notes,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// TaskRecord is the full signed envelope for a task.
type TaskRecord = Record[TaskPayload]
