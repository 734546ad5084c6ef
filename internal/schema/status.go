package schema

// PlanStatus is the lifecycle state of a plan.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanArchived  PlanStatus = "archived"
	PlanCancelled PlanStatus = "cancelled"
)

// StagingStatus is the lifecycle state of a staging.
type StagingStatus string

const (
	StagingPending    StagingStatus = "pending"
	StagingInProgress StagingStatus = "in_progress"
	StagingCompleted  StagingStatus = "completed"
	StagingFailed     StagingStatus = "failed"
	StagingCancelled  StagingStatus = "cancelled"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
	TaskCancelled  TaskStatus = "cancelled"
)

// Priority orders tasks for display and selection.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ExecutionType controls whether sibling tasks run in parallel or in
// dependency order.
type ExecutionType string

const (
	ExecutionParallel   ExecutionType = "parallel"
	ExecutionSequential ExecutionType = "sequential"
)

// taskTransitions is the closed task state machine. A transition is legal
// only if the target appears in the source's entry. Terminal states have an
// empty entry.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskInProgress, TaskBlocked, TaskCancelled},
	TaskInProgress: {TaskDone, TaskBlocked, TaskCancelled},
	TaskBlocked:    {TaskInProgress, TaskCancelled},
	TaskDone:       {},
	TaskCancelled:  {},
}

// CanTransitionTo reports whether the task state machine permits s -> target.
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	for _, t := range taskTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// AllowedTargets returns the legal targets from s, in table order.
func (s TaskStatus) AllowedTargets() []TaskStatus {
	targets := taskTransitions[s]
	out := make([]TaskStatus, len(targets))
	copy(out, targets)
	return out
}

// Terminal reports whether s admits no further transitions.
func (s TaskStatus) Terminal() bool {
	return len(taskTransitions[s]) == 0
}

// Terminal reports whether the plan may be archived from s.
func (s PlanStatus) Terminal() bool {
	return s == PlanCompleted || s == PlanCancelled
}

// Terminal reports whether the staging admits no further transitions.
func (s StagingStatus) Terminal() bool {
	return s == StagingCompleted || s == StagingCancelled
}

// ParsePlanStatus validates and parses a plan status string.
func ParsePlanStatus(s string) (PlanStatus, bool) {
	switch PlanStatus(s) {
	case PlanDraft, PlanActive, PlanCompleted, PlanArchived, PlanCancelled:
		return PlanStatus(s), true
	default:
		return "", false
	}
}

// ParseStagingStatus validates and parses a staging status string.
func ParseStagingStatus(s string) (StagingStatus, bool) {
	switch StagingStatus(s) {
	case StagingPending, StagingInProgress, StagingCompleted, StagingFailed, StagingCancelled:
		return StagingStatus(s), true
	default:
		return "", false
	}
}

// ParseTaskStatus validates and parses a task status string.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case TaskPending, TaskInProgress, TaskDone, TaskBlocked, TaskCancelled:
		return TaskStatus(s), true
	default:
		return "", false
	}
}

// ParsePriority validates and parses a priority string.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), true
	default:
		return "", false
	}
}

// ParseExecutionType validates and parses an execution type string.
func ParseExecutionType(s string) (ExecutionType, bool) {
	switch ExecutionType(s) {
	case ExecutionParallel, ExecutionSequential:
		return ExecutionType(s), true
	default:
		return "", false
	}
}
