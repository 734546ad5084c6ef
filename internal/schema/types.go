// Package schema defines the persisted state document and its entity types.
//
// The whole engine state is one JSON document: a singleton project, maps of
// plans, stagings, and tasks keyed by id, a capped history log, and a context
// block holding the current plan/staging pointers plus decisions and memories.
package schema

import "time"

const (
	// Version is the literal schema version written into every document.
	// A loaded document with any other value is rejected; there is no migration.
	Version = "1.0.0"

	// DefaultHistoryLimit caps the history log length. Appends beyond the cap
	// evict the oldest entries so the document cannot grow without bound.
	DefaultHistoryLimit = 500
)

// Document is the root of the persisted state.
type Document struct {
	Version  string             `json:"version"`
	Project  Project            `json:"project"`
	Plans    map[string]Plan    `json:"plans"`
	Stagings map[string]Staging `json:"stagings"`
	Tasks    map[string]Task    `json:"tasks"`
	History  []HistoryEntry     `json:"history"`
	Context  Context            `json:"context"`
}

// Project is the singleton project record. One per document.
type Project struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Goals       []string  `json:"goals"`
	Constraints []string  `json:"constraints"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Plan is the top-level unit of work, composed of ordered stagings.
type Plan struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      PlanStatus `json:"status"`
	// StagingIDs is the owning, ordered list of the plan's stagings.
	StagingIDs []string `json:"stagingIds"`
	// ArtifactRoot is the plan's artifact directory, stored in slash form
	// relative to the project root.
	ArtifactRoot string     `json:"artifactRoot"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Staging is an ordered phase of a plan. The plan's StagingIDs list owns it;
// PlanID is a back-reference only.
type Staging struct {
	ID          string `json:"id"`
	PlanID      string `json:"planId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Order is zero-based and contiguous within the owning plan.
	Order         int           `json:"order"`
	ExecutionType ExecutionType `json:"executionType"`
	Status        StagingStatus `json:"status"`
	// TaskIDs is the owning, ordered list of the staging's tasks.
	TaskIDs      []string `json:"taskIds"`
	ArtifactPath string   `json:"artifactPath"`
	// ArtifactRefs are read-only pointers to other stagings' artifacts.
	// They never form dependency edges and never imply ownership.
	ArtifactRefs []ArtifactRef `json:"artifactRefs,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// Task is the smallest unit of work. StagingID and PlanID are immutable once
// the task is created.
type Task struct {
	ID            string        `json:"id"`
	StagingID     string        `json:"stagingId"`
	PlanID        string        `json:"planId"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Priority      Priority      `json:"priority"`
	ExecutionMode ExecutionType `json:"executionMode"`
	Status        TaskStatus    `json:"status"`
	// DependsOn holds ids of sibling tasks within the same staging only.
	DependsOn []string    `json:"dependsOn"`
	Output    *TaskOutput `json:"output,omitempty"`
	// ArtifactRefs are read-only pointers to other stagings' outputs.
	ArtifactRefs []ArtifactRef `json:"artifactRefs,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// TaskOutput records what a finished task produced.
type TaskOutput struct {
	Status        string         `json:"status"`
	Summary       string         `json:"summary,omitempty"`
	ArtifactPaths []string       `json:"artifactPaths,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// ArtifactRef is a read-only cross-staging pointer to an artifact path.
type ArtifactRef struct {
	StagingID string `json:"stagingId"`
	Path      string `json:"path"`
	Note      string `json:"note,omitempty"`
}

// HistoryEntry is one append-only audit record.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entityId,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// Decision is an append-only record of a project decision.
type Decision struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Rationale string    `json:"rationale,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Memory is an independently keyed context note. Priority ranges 0-100;
// disabled memories are kept but excluded from context injection.
type Memory struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Priority  int       `json:"priority"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Context tracks the current plan/staging pointers and auxiliary records.
type Context struct {
	CurrentPlanID    string            `json:"currentPlanId,omitempty"`
	CurrentStagingID string            `json:"currentStagingId,omitempty"`
	Decisions        []Decision        `json:"decisions"`
	Memories         map[string]Memory `json:"memories"`
	// Revision is a fresh random tag written on every save, letting external
	// callers detect that the document changed without diffing it.
	Revision    string    `json:"revision,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NewDocument returns an empty document for a fresh project.
func NewDocument(project Project) *Document {
	return &Document{
		Version:  Version,
		Project:  project,
		Plans:    map[string]Plan{},
		Stagings: map[string]Staging{},
		Tasks:    map[string]Task{},
		History:  []HistoryEntry{},
		Context: Context{
			Decisions: []Decision{},
			Memories:  map[string]Memory{},
		},
	}
}
