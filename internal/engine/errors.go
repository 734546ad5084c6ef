package engine

import (
	"fmt"
	"strings"

	"github.com/planwright/planwright/internal/schema"
)

// Error codes let callers branch on failures without string matching. Every
// error type below carries one via Code().
const (
	CodeNotInitialized     = "NOT_INITIALIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidState       = "INVALID_STATE"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"
	CodeMismatch           = "MISMATCH"
	CodeStagingOrder       = "STAGING_ORDER"
	CodeValidation         = "VALIDATION"
)

// NotInitializedError means no state document has been created or loaded yet.
type NotInitializedError struct{}

func (NotInitializedError) Error() string {
	return "no project initialized: create a project before any other operation"
}

func (NotInitializedError) Code() string { return CodeNotInitialized }

// NotFoundError reports an id absent from the current store.
type NotFoundError struct {
	Kind string // "plan", "staging", "task", "memory"
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e NotFoundError) Code() string { return CodeNotFound }

// InvalidStateError reports an entity whose status does not permit the
// requested operation. It names the current status and the statuses that
// would permit it.
type InvalidStateError struct {
	Kind    string
	ID      string
	Op      string
	Status  string
	Allowed []string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s: status is %q (allowed: %s)",
		e.Op, e.Kind, e.ID, e.Status, strings.Join(e.Allowed, ", "))
}

func (e InvalidStateError) Code() string { return CodeInvalidState }

// InvalidTransitionError reports a task status change outside the transition
// table. It names the attempted edge and the allowed targets.
type InvalidTransitionError struct {
	TaskID  string
	From    schema.TaskStatus
	To      schema.TaskStatus
	Allowed []schema.TaskStatus
}

func (e InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	if len(allowed) == 0 {
		return fmt.Sprintf("invalid transition for task %s: %s -> %s (%s is terminal)",
			e.TaskID, e.From, e.To, e.From)
	}
	return fmt.Sprintf("invalid transition for task %s: %s -> %s (allowed: %s)",
		e.TaskID, e.From, e.To, strings.Join(allowed, ", "))
}

func (e InvalidTransitionError) Code() string { return CodeInvalidTransition }

// CircularDependencyError reports a proposed dependency edge set that would
// cycle. Cycle holds the detected chain, closed with the starting task.
type CircularDependencyError struct {
	Cycle []string
}

func (e CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", schema.JoinCycle(e.Cycle))
}

func (e CircularDependencyError) Code() string { return CodeCircularDependency }

// MismatchError reports an entity that references a different parent than the
// caller named, which is distinct from the entity not existing at all.
type MismatchError struct {
	Kind       string
	ID         string
	Claimed    string
	Actual     string
	ParentKind string
}

func (e MismatchError) Error() string {
	return fmt.Sprintf("%s %s belongs to %s %s, not %s",
		e.Kind, e.ID, e.ParentKind, e.Actual, e.Claimed)
}

func (e MismatchError) Code() string { return CodeMismatch }

// StagingOrderError reports an attempt to start staging N before staging N-1
// completed. BlockedBy names the staging that must finish first.
type StagingOrderError struct {
	StagingID string
	BlockedBy string
}

func (e StagingOrderError) Error() string {
	return fmt.Sprintf("cannot start staging %s: previous staging %s is not completed",
		e.StagingID, e.BlockedBy)
}

func (e StagingOrderError) Code() string { return CodeStagingOrder }

// InputError reports malformed caller input (missing required field, value
// out of range).
type InputError struct {
	Field   string
	Message string
}

func (e InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Message)
}

func (e InputError) Code() string { return CodeValidation }
