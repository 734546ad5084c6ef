package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/planwright/planwright/internal/schema"
	"github.com/planwright/planwright/internal/store"
)

// GetTask returns the task with the given id.
func (m *Manager) GetTask(taskID string) (*schema.Task, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	t, ok := doc.Tasks[taskID]
	if !ok {
		return nil, NotFoundError{Kind: "task", ID: taskID}
	}
	return &t, nil
}

// ListTasks returns a staging's tasks in their defined order.
func (m *Manager) ListTasks(stagingID string) ([]schema.Task, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	st, ok := doc.Stagings[stagingID]
	if !ok {
		return nil, NotFoundError{Kind: "staging", ID: stagingID}
	}
	out := make([]schema.Task, 0, len(st.TaskIDs))
	for _, tid := range st.TaskIDs {
		out = append(out, doc.Tasks[tid])
	}
	return out, nil
}

// UpdateTaskStatus applies one edge of the task transition table. Entering
// in_progress records the start time; entering done records completion and
// re-checks the owning staging for auto-completion (which may cascade to the
// plan); entering blocked records the supplied note.
func (m *Manager) UpdateTaskStatus(taskID string, target schema.TaskStatus, note string) (*schema.Task, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	t, ok := doc.Tasks[taskID]
	if !ok {
		return nil, NotFoundError{Kind: "task", ID: taskID}
	}
	if _, ok := schema.ParseTaskStatus(string(target)); !ok {
		return nil, InputError{Field: "status", Message: fmt.Sprintf("unknown status %q", target)}
	}
	if !t.Status.CanTransitionTo(target) {
		return nil, InvalidTransitionError{
			TaskID:  taskID,
			From:    t.Status,
			To:      target,
			Allowed: t.Status.AllowedTargets(),
		}
	}

	now := m.now()
	t.Status = target
	t.UpdatedAt = now

	switch target {
	case schema.TaskInProgress:
		if t.StartedAt == nil {
			t.StartedAt = timePtr(now)
		}
		doc.Tasks[taskID] = t
		m.appendHistory("task.started", taskID, note)
	case schema.TaskDone:
		t.CompletedAt = timePtr(now)
		doc.Tasks[taskID] = t
		m.appendHistory("task.done", taskID, note)
		m.checkStagingCompletion(t.StagingID)
	case schema.TaskBlocked:
		doc.Tasks[taskID] = t
		m.appendHistory("task.blocked", taskID, note)
	case schema.TaskCancelled:
		doc.Tasks[taskID] = t
		m.appendHistory("task.cancelled", taskID, note)
	}

	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Tasks[taskID]
	return &out, nil
}

// ExecutableTasks returns the tasks of a staging that may start right now.
// A staging that is not in_progress has no executable tasks. Under parallel
// execution every pending task qualifies; under sequential execution a
// pending task qualifies only once all its dependencies are done. This is a
// derived view and mutates nothing.
func (m *Manager) ExecutableTasks(stagingID string) ([]schema.Task, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	st, ok := doc.Stagings[stagingID]
	if !ok {
		return nil, NotFoundError{Kind: "staging", ID: stagingID}
	}
	if st.Status != schema.StagingInProgress {
		return []schema.Task{}, nil
	}

	out := make([]schema.Task, 0, len(st.TaskIDs))
	for _, tid := range st.TaskIDs {
		t := doc.Tasks[tid]
		if t.Status != schema.TaskPending {
			continue
		}
		if st.ExecutionType == schema.ExecutionSequential && len(schema.UnmetDeps(*doc, t)) > 0 {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// AddTask appends a task to a staging that has not finished. deps holds ids
// of sibling tasks; the resolver rejects self, cross-staging, and cyclic
// edges before anything is committed.
func (m *Manager) AddTask(stagingID string, def TaskDefinition, deps []string) (*schema.Task, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	st, ok := doc.Stagings[stagingID]
	if !ok {
		return nil, NotFoundError{Kind: "staging", ID: stagingID}
	}
	if st.Status.Terminal() {
		return nil, InvalidStateError{
			Kind:    "staging",
			ID:      stagingID,
			Op:      "add task to",
			Status:  string(st.Status),
			Allowed: []string{string(schema.StagingPending), string(schema.StagingInProgress), string(schema.StagingFailed)},
		}
	}
	if strings.TrimSpace(def.Title) == "" {
		return nil, InputError{Field: "title", Message: "required"}
	}

	priority := def.Priority
	if priority == "" {
		priority = schema.PriorityMedium
	}
	if _, ok := schema.ParsePriority(string(priority)); !ok {
		return nil, InputError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", priority)}
	}
	mode := def.ExecutionMode
	if mode == "" {
		mode = st.ExecutionType
	}
	if _, ok := schema.ParseExecutionType(string(mode)); !ok {
		return nil, InputError{Field: "executionMode", Message: fmt.Sprintf("unknown execution mode %q", mode)}
	}

	taskID := m.freshTaskID(nil)
	if err := m.checkTaskDeps(taskID, stagingID, deps); err != nil {
		return nil, err
	}

	now := m.now()
	task := schema.Task{
		ID:            taskID,
		StagingID:     stagingID,
		PlanID:        st.PlanID,
		Title:         strings.TrimSpace(def.Title),
		Description:   strings.TrimSpace(def.Description),
		Priority:      priority,
		ExecutionMode: mode,
		Status:        schema.TaskPending,
		DependsOn:     normalizeDeps(deps),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	doc.Tasks[taskID] = task
	st.TaskIDs = append(st.TaskIDs, taskID)
	st.UpdatedAt = now
	doc.Stagings[stagingID] = st

	m.appendHistory("task.added", taskID, task.Title)
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Tasks[taskID]
	return &out, nil
}

// TaskUpdate carries optional field updates for UpdateTask. Nil fields are
// left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *schema.Priority
	DependsOn   *[]string
}

// UpdateTask modifies a task's editable fields. Status changes go through
// UpdateTaskStatus; staging and plan membership are immutable. A new
// dependency set passes the full resolver check and leaves the store
// untouched when rejected.
func (m *Manager) UpdateTask(taskID string, update TaskUpdate) (*schema.Task, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	t, ok := doc.Tasks[taskID]
	if !ok {
		return nil, NotFoundError{Kind: "task", ID: taskID}
	}
	if t.Status.Terminal() {
		return nil, InvalidStateError{
			Kind:    "task",
			ID:      taskID,
			Op:      "update",
			Status:  string(t.Status),
			Allowed: []string{string(schema.TaskPending), string(schema.TaskInProgress), string(schema.TaskBlocked)},
		}
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, InputError{Field: "title", Message: "must be non-empty"}
		}
		t.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		t.Description = strings.TrimSpace(*update.Description)
	}
	if update.Priority != nil {
		if _, ok := schema.ParsePriority(string(*update.Priority)); !ok {
			return nil, InputError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", *update.Priority)}
		}
		t.Priority = *update.Priority
	}
	if update.DependsOn != nil {
		if err := m.checkTaskDeps(taskID, t.StagingID, *update.DependsOn); err != nil {
			return nil, err
		}
		t.DependsOn = normalizeDeps(*update.DependsOn)
	}

	t.UpdatedAt = m.now()
	doc.Tasks[taskID] = t

	m.appendHistory("task.updated", taskID, "")
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Tasks[taskID]
	return &out, nil
}

// RemoveTask deletes a task that is not in_progress and drops its id from
// sibling dependency sets.
func (m *Manager) RemoveTask(taskID string) error {
	doc, err := m.requireDoc()
	if err != nil {
		return err
	}
	t, ok := doc.Tasks[taskID]
	if !ok {
		return NotFoundError{Kind: "task", ID: taskID}
	}
	if t.Status == schema.TaskInProgress {
		return InvalidStateError{
			Kind:   "task",
			ID:     taskID,
			Op:     "remove",
			Status: string(t.Status),
			Allowed: []string{
				string(schema.TaskPending),
				string(schema.TaskBlocked),
				string(schema.TaskDone),
				string(schema.TaskCancelled),
			},
		}
	}

	now := m.now()
	delete(doc.Tasks, taskID)

	st := doc.Stagings[t.StagingID]
	kept := make([]string, 0, len(st.TaskIDs))
	for _, tid := range st.TaskIDs {
		if tid != taskID {
			kept = append(kept, tid)
		}
	}
	st.TaskIDs = kept
	st.UpdatedAt = now
	doc.Stagings[t.StagingID] = st

	for _, depID := range schema.Dependents(*doc, taskID) {
		dep := doc.Tasks[depID]
		next := make([]string, 0, len(dep.DependsOn))
		for _, d := range dep.DependsOn {
			if d != taskID {
				next = append(next, d)
			}
		}
		dep.DependsOn = next
		dep.UpdatedAt = now
		doc.Tasks[depID] = dep
	}

	m.appendHistory("task.removed", taskID, t.Title)
	return m.persist()
}

// SaveTaskOutput records a task's output both in the document and as a JSON
// artifact under the staging's artifact directory. The artifact write is
// best-effort; the document remains the source of truth.
func (m *Manager) SaveTaskOutput(taskID string, output schema.TaskOutput) (*schema.Task, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	t, ok := doc.Tasks[taskID]
	if !ok {
		return nil, NotFoundError{Kind: "task", ID: taskID}
	}

	now := m.now()
	t.Output = &output
	t.UpdatedAt = now
	doc.Tasks[taskID] = t

	if path, perr := m.layout.TaskOutputPath(t.PlanID, t.StagingID, taskID); perr != nil {
		m.log.Warn("task output path rejected", "task", taskID, "error", perr)
	} else if b, merr := json.MarshalIndent(output, "", "  "); merr != nil {
		m.log.Warn("marshal task output", "task", taskID, "error", merr)
	} else {
		b = append(b, '\n')
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			m.log.Warn("create task output dir", "task", taskID, "error", mkErr)
		} else if wErr := store.WriteFileAtomic(path, b, 0o644); wErr != nil {
			m.log.Warn("write task output artifact", "task", taskID, "error", wErr)
		}
	}

	m.appendHistory("task.output_saved", taskID, output.Status)
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Tasks[taskID]
	return &out, nil
}

// LoadTaskOutput reads a task's output artifact from disk. A missing
// artifact is expected absence and yields (nil, nil).
func (m *Manager) LoadTaskOutput(taskID string) (*schema.TaskOutput, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	t, ok := doc.Tasks[taskID]
	if !ok {
		return nil, NotFoundError{Kind: "task", ID: taskID}
	}

	path, err := m.layout.TaskOutputPath(t.PlanID, t.StagingID, taskID)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read task output %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var out schema.TaskOutput
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("parse task output %s: %w", path, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("parse task output %s: trailing data", path)
	}
	return &out, nil
}

func normalizeDeps(deps []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
