package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/planwright/planwright/internal/ident"
	"github.com/planwright/planwright/internal/schema"
)

// RecordDecision appends a decision record to the context.
func (m *Manager) RecordDecision(title, rationale string) (*schema.Decision, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, InputError{Field: "title", Message: "required"}
	}

	decision := schema.Decision{
		ID:        ident.NewDecisionID(),
		Title:     strings.TrimSpace(title),
		Rationale: strings.TrimSpace(rationale),
		Timestamp: m.now(),
	}
	doc.Context.Decisions = append(doc.Context.Decisions, decision)

	m.appendHistory("decision.recorded", decision.ID, decision.Title)
	if err := m.persist(); err != nil {
		return nil, err
	}
	return &decision, nil
}

// ListDecisions returns all decisions, oldest first.
func (m *Manager) ListDecisions() ([]schema.Decision, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	out := make([]schema.Decision, len(doc.Context.Decisions))
	copy(out, doc.Context.Decisions)
	return out, nil
}

// AddMemory stores a context note. Priority must lie in 0..100; higher means
// injected earlier by the consuming layer.
func (m *Manager) AddMemory(content string, priority int, enabled bool) (*schema.Memory, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, InputError{Field: "content", Message: "required"}
	}
	if priority < 0 || priority > 100 {
		return nil, InputError{Field: "priority", Message: fmt.Sprintf("must be 0..100 (got %d)", priority)}
	}

	now := m.now()
	mem := schema.Memory{
		ID:        m.freshMemoryID(),
		Content:   strings.TrimSpace(content),
		Priority:  priority,
		Enabled:   enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.Context.Memories[mem.ID] = mem

	m.appendHistory("memory.added", mem.ID, "")
	if err := m.persist(); err != nil {
		return nil, err
	}
	return &mem, nil
}

// MemoryUpdate carries optional field updates for UpdateMemory.
type MemoryUpdate struct {
	Content  *string
	Priority *int
	Enabled  *bool
}

// UpdateMemory modifies an existing memory entry.
func (m *Manager) UpdateMemory(memoryID string, update MemoryUpdate) (*schema.Memory, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	mem, ok := doc.Context.Memories[memoryID]
	if !ok {
		return nil, NotFoundError{Kind: "memory", ID: memoryID}
	}

	if update.Content != nil {
		if strings.TrimSpace(*update.Content) == "" {
			return nil, InputError{Field: "content", Message: "must be non-empty"}
		}
		mem.Content = strings.TrimSpace(*update.Content)
	}
	if update.Priority != nil {
		if *update.Priority < 0 || *update.Priority > 100 {
			return nil, InputError{Field: "priority", Message: fmt.Sprintf("must be 0..100 (got %d)", *update.Priority)}
		}
		mem.Priority = *update.Priority
	}
	if update.Enabled != nil {
		mem.Enabled = *update.Enabled
	}

	mem.UpdatedAt = m.now()
	doc.Context.Memories[memoryID] = mem

	m.appendHistory("memory.updated", memoryID, "")
	if err := m.persist(); err != nil {
		return nil, err
	}
	return &mem, nil
}

// RemoveMemory deletes a memory entry.
func (m *Manager) RemoveMemory(memoryID string) error {
	doc, err := m.requireDoc()
	if err != nil {
		return err
	}
	if _, ok := doc.Context.Memories[memoryID]; !ok {
		return NotFoundError{Kind: "memory", ID: memoryID}
	}
	delete(doc.Context.Memories, memoryID)

	m.appendHistory("memory.removed", memoryID, "")
	return m.persist()
}

// ListMemories returns memories sorted by priority descending, then id.
// When enabledOnly is set, disabled entries are skipped.
func (m *Manager) ListMemories(enabledOnly bool) ([]schema.Memory, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	out := make([]schema.Memory, 0, len(doc.Context.Memories))
	for _, mem := range doc.Context.Memories {
		if enabledOnly && !mem.Enabled {
			continue
		}
		out = append(out, mem)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Manager) freshMemoryID() string {
	for {
		id := ident.NewMemoryID()
		if _, ok := m.doc.Context.Memories[id]; !ok {
			return id
		}
	}
}
