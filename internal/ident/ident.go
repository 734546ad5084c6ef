// Package ident generates and validates entity identifiers.
//
// Entity ids follow fixed per-kind patterns (prefix plus a lowercase
// alphanumeric suffix) drawn from a cryptographically strong random source.
// History and decision entries use ULIDs, which embed a millisecond timestamp
// prefix and stay sortable by creation time.
package ident

import (
	"crypto/rand"
	"fmt"
	"regexp"

	"github.com/oklog/ulid/v2"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	planIDPattern    = regexp.MustCompile(`^plan-[a-z0-9]{8}$`)
	stagingIDPattern = regexp.MustCompile(`^staging-[a-z0-9]{4}$`)
	taskIDPattern    = regexp.MustCompile(`^task-[a-z0-9]{8}$`)
	memoryIDPattern  = regexp.MustCompile(`^mem-[a-z0-9]{8}$`)
)

// InvalidIDError reports an id that fails its kind's safety pattern. The check
// runs before any filesystem path is built from the id.
type InvalidIDError struct {
	Kind string
	ID   string
}

func (e InvalidIDError) Error() string {
	return fmt.Sprintf("invalid %s id %q", e.Kind, e.ID)
}

// NewPlanID returns a fresh plan id.
func NewPlanID() string { return "plan-" + randSuffix(8) }

// NewStagingID returns a fresh staging id.
func NewStagingID() string { return "staging-" + randSuffix(4) }

// NewTaskID returns a fresh task id.
func NewTaskID() string { return "task-" + randSuffix(8) }

// NewMemoryID returns a fresh memory id.
func NewMemoryID() string { return "mem-" + randSuffix(8) }

// NewHistoryID returns a timestamp-prefixed history entry id.
func NewHistoryID() string { return "hist-" + ulid.Make().String() }

// NewDecisionID returns a timestamp-prefixed decision id.
func NewDecisionID() string { return "dec-" + ulid.Make().String() }

// ValidPlanID reports whether id matches the plan id pattern.
func ValidPlanID(id string) bool { return planIDPattern.MatchString(id) }

// ValidStagingID reports whether id matches the staging id pattern.
func ValidStagingID(id string) bool { return stagingIDPattern.MatchString(id) }

// ValidTaskID reports whether id matches the task id pattern.
func ValidTaskID(id string) bool { return taskIDPattern.MatchString(id) }

// ValidMemoryID reports whether id matches the memory id pattern.
func ValidMemoryID(id string) bool { return memoryIDPattern.MatchString(id) }

// CheckPlanID returns an InvalidIDError unless id matches the plan pattern.
func CheckPlanID(id string) error {
	if !ValidPlanID(id) {
		return InvalidIDError{Kind: "plan", ID: id}
	}
	return nil
}

// CheckStagingID returns an InvalidIDError unless id matches the staging pattern.
func CheckStagingID(id string) error {
	if !ValidStagingID(id) {
		return InvalidIDError{Kind: "staging", ID: id}
	}
	return nil
}

// CheckTaskID returns an InvalidIDError unless id matches the task pattern.
func CheckTaskID(id string) error {
	if !ValidTaskID(id) {
		return InvalidIDError{Kind: "task", ID: id}
	}
	return nil
}

func randSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// ids must never degrade to a weaker source.
		panic(fmt.Sprintf("ident: read random bytes: %v", err))
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}
