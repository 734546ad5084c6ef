package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/planwright/planwright/internal/schema"
)

// TaskFilter narrows FindTasks. Zero-value fields match everything.
type TaskFilter struct {
	PlanID    string
	StagingID string
	Status    schema.TaskStatus
	Priority  schema.Priority
	Text      string
}

// Page bounds a result set. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) validate() error {
	if p.Offset < 0 {
		return InputError{Field: "offset", Message: fmt.Sprintf("must be >= 0 (got %d)", p.Offset)}
	}
	if p.Limit < 0 {
		return InputError{Field: "limit", Message: fmt.Sprintf("must be >= 0 (got %d)", p.Limit)}
	}
	return nil
}

// FindTasks filters tasks by membership, status, priority, and free text
// over title and description, sorted by creation time then id. This is a
// pure read over already-validated entities.
func (m *Manager) FindTasks(filter TaskFilter, page Page) ([]schema.Task, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	if err := page.validate(); err != nil {
		return nil, err
	}

	out := make([]schema.Task, 0)
	for _, t := range doc.Tasks {
		if filter.PlanID != "" && t.PlanID != filter.PlanID {
			continue
		}
		if filter.StagingID != "" && t.StagingID != filter.StagingID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if filter.Text != "" && !matchText(filter.Text, t.Title, t.Description) {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return paginate(out, page), nil
}

// SearchResult is one free-text hit across entity kinds.
type SearchResult struct {
	Kind    string // "plan", "task", "decision", "memory"
	ID      string
	Title   string
	Snippet string
}

// Search matches query against plan titles/descriptions, task
// titles/descriptions, decision titles/rationales, and memory content.
// An empty query returns an empty result, not an error.
func (m *Manager) Search(query string, page Page) ([]SearchResult, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	if err := page.validate(); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}

	out := make([]SearchResult, 0)
	for _, p := range doc.Plans {
		if matchText(query, p.Title, p.Description) {
			out = append(out, SearchResult{Kind: "plan", ID: p.ID, Title: p.Title, Snippet: p.Description})
		}
	}
	for _, t := range doc.Tasks {
		if matchText(query, t.Title, t.Description) {
			out = append(out, SearchResult{Kind: "task", ID: t.ID, Title: t.Title, Snippet: t.Description})
		}
	}
	for _, d := range doc.Context.Decisions {
		if matchText(query, d.Title, d.Rationale) {
			out = append(out, SearchResult{Kind: "decision", ID: d.ID, Title: d.Title, Snippet: d.Rationale})
		}
	}
	for _, mem := range doc.Context.Memories {
		if matchText(query, mem.Content) {
			out = append(out, SearchResult{Kind: "memory", ID: mem.ID, Snippet: mem.Content})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})

	return paginate(out, page), nil
}

// ListArtifacts walks a plan's artifact tree and returns files whose
// slash-form path relative to the plan directory matches the doublestar
// pattern (e.g. "artifacts/*/task-*-output.json" or "**/*.json"). A plan
// with no artifact directory yields an empty list.
func (m *Manager) ListArtifacts(planID, pattern string) ([]string, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	if _, ok := doc.Plans[planID]; !ok {
		return nil, NotFoundError{Kind: "plan", ID: planID}
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, InputError{Field: "pattern", Message: "invalid glob pattern"}
	}

	dir, err := m.layout.PlanDir(planID)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return err
		}
		if ok {
			out = append(out, rel)
		}
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return []string{}, nil
		}
		return nil, walkErr
	}

	sort.Strings(out)
	return out, nil
}

func matchText(query string, fields ...string) bool {
	query = strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, page Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
