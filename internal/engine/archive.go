package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/planwright/planwright/internal/schema"
)

// ArchivePlan moves a finished plan's artifacts from the active plans area to
// the archive area and flips its status to archived. Only completed or
// cancelled plans may be archived. A plan that produced no artifacts archives
// cleanly; the history entry says so explicitly instead of hiding the missing
// directory.
func (m *Manager) ArchivePlan(planID string) (*schema.Plan, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	plan, ok := doc.Plans[planID]
	if !ok {
		return nil, NotFoundError{Kind: "plan", ID: planID}
	}
	if !plan.Status.Terminal() {
		return nil, InvalidStateError{
			Kind:    "plan",
			ID:      planID,
			Op:      "archive",
			Status:  string(plan.Status),
			Allowed: []string{string(schema.PlanCompleted), string(schema.PlanCancelled)},
		}
	}

	// Path safety comes first: the id is pattern-checked and both endpoints
	// are confined to the managed directory before any filesystem access.
	src, err := m.layout.PlanDir(planID)
	if err != nil {
		return nil, err
	}
	dst, err := m.layout.ArchivedPlanDir(planID)
	if err != nil {
		return nil, err
	}

	note, err := m.migrateArtifacts(src, dst)
	if err != nil {
		return nil, err
	}

	now := m.now()
	plan.Status = schema.PlanArchived
	plan.UpdatedAt = now
	doc.Plans[planID] = plan
	m.clearPointersFor(planID)

	m.appendHistory("plan.archived", planID, note)
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Plans[planID]
	return &out, nil
}

// UnarchivePlan reverses the archive move and restores the plan to
// completed, its status prior to archiving.
func (m *Manager) UnarchivePlan(planID string) (*schema.Plan, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	plan, ok := doc.Plans[planID]
	if !ok {
		return nil, NotFoundError{Kind: "plan", ID: planID}
	}
	if plan.Status != schema.PlanArchived {
		return nil, InvalidStateError{
			Kind:    "plan",
			ID:      planID,
			Op:      "unarchive",
			Status:  string(plan.Status),
			Allowed: []string{string(schema.PlanArchived)},
		}
	}

	src, err := m.layout.ArchivedPlanDir(planID)
	if err != nil {
		return nil, err
	}
	dst, err := m.layout.PlanDir(planID)
	if err != nil {
		return nil, err
	}

	note, err := m.migrateArtifacts(src, dst)
	if err != nil {
		return nil, err
	}

	now := m.now()
	plan.Status = schema.PlanCompleted
	plan.UpdatedAt = now
	doc.Plans[planID] = plan

	m.appendHistory("plan.unarchived", planID, note)
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Plans[planID]
	return &out, nil
}

// migrateArtifacts moves a directory tree by copying then deleting the
// source. Copy-then-delete keeps the source intact if the copy fails partway.
// A missing source is tolerated: the plan may never have produced artifacts.
func (m *Manager) migrateArtifacts(src, dst string) (note string, err error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "no artifacts to migrate", nil
		}
		return "", fmt.Errorf("stat artifact source %s: %w", src, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("artifact source %s is not a directory", src)
	}

	if err := copyTree(src, dst); err != nil {
		return "", fmt.Errorf("copy artifacts: %w", err)
	}
	if err := os.RemoveAll(src); err != nil {
		// The copy succeeded; leaving the source behind is recoverable.
		m.log.Warn("remove artifact source after copy", "path", src, "error", err)
		return "artifacts copied; source cleanup failed", nil
	}
	return "", nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
