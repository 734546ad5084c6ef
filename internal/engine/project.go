package engine

import (
	"strings"

	"github.com/planwright/planwright/internal/schema"
)

// CreateProject initializes the state document with the singleton project
// record. It fails if a project already exists; there is exactly one per
// document.
func (m *Manager) CreateProject(name, description string, goals, constraints []string) (*schema.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, InputError{Field: "name", Message: "required"}
	}
	if m.doc != nil {
		return nil, InvalidStateError{
			Kind:   "project",
			ID:     m.doc.Project.Name,
			Op:     "create",
			Status: "initialized",
		}
	}

	now := m.now()
	project := schema.Project{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Goals:       normalizeList(goals),
		Constraints: normalizeList(constraints),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.doc = schema.NewDocument(project)
	m.appendHistory("project.created", "", project.Name)
	if err := m.persist(); err != nil {
		m.doc = nil
		return nil, err
	}

	out := m.doc.Project
	return &out, nil
}

// Project returns the singleton project record.
func (m *Manager) Project() (*schema.Project, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	out := doc.Project
	return &out, nil
}

// UpdateProject replaces the project's mutable fields.
func (m *Manager) UpdateProject(description string, goals, constraints []string) (*schema.Project, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}

	doc.Project.Description = strings.TrimSpace(description)
	doc.Project.Goals = normalizeList(goals)
	doc.Project.Constraints = normalizeList(constraints)
	doc.Project.UpdatedAt = m.now()

	m.appendHistory("project.updated", "", doc.Project.Name)
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Project
	return &out, nil
}

func normalizeList(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
