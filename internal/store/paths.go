// Package store persists the state document and owns the managed directory
// layout. All path construction lives here so id-safety checks and root
// boundary enforcement cannot be bypassed by business logic.
package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/planwright/planwright/internal/ident"
)

const (
	stateDirName    = ".claude"
	stateFileName   = "state.json"
	plansDirName    = "plans"
	archiveDirName  = "archive"
	artifactDirName = "artifacts"
)

// PathEscapeError reports a resolved path that would leave the managed
// directory. It is returned before any filesystem access happens.
type PathEscapeError struct {
	Path string
	Root string
}

func (e PathEscapeError) Error() string {
	return fmt.Sprintf("path %q escapes managed directory %q", e.Path, e.Root)
}

// Layout resolves every managed path beneath a single project root.
type Layout struct {
	root string
}

// NewLayout returns a layout rooted at projectRoot.
func NewLayout(projectRoot string) Layout {
	return Layout{root: filepath.Clean(projectRoot)}
}

// Root returns the project root directory.
func (l Layout) Root() string { return l.root }

// StateDir returns the managed state directory.
func (l Layout) StateDir() string {
	return filepath.Join(l.root, stateDirName)
}

// StatePath returns the state document path.
func (l Layout) StatePath() string {
	return filepath.Join(l.StateDir(), stateFileName)
}

// PlansDir returns the active plans area.
func (l Layout) PlansDir() string {
	return filepath.Join(l.StateDir(), plansDirName)
}

// ArchiveDir returns the archived plans area.
func (l Layout) ArchiveDir() string {
	return filepath.Join(l.StateDir(), archiveDirName)
}

// PlanDir returns the artifact root for a plan, after validating the id and
// checking the resolved path stays inside the managed directory.
func (l Layout) PlanDir(planID string) (string, error) {
	if err := ident.CheckPlanID(planID); err != nil {
		return "", err
	}
	return l.confine(filepath.Join(l.PlansDir(), planID))
}

// ArchivedPlanDir returns the archive location for a plan's artifacts.
func (l Layout) ArchivedPlanDir(planID string) (string, error) {
	if err := ident.CheckPlanID(planID); err != nil {
		return "", err
	}
	return l.confine(filepath.Join(l.ArchiveDir(), planID))
}

// StagingArtifactDir returns the artifact directory for a staging.
func (l Layout) StagingArtifactDir(planID, stagingID string) (string, error) {
	if err := ident.CheckStagingID(stagingID); err != nil {
		return "", err
	}
	planDir, err := l.PlanDir(planID)
	if err != nil {
		return "", err
	}
	return l.confine(filepath.Join(planDir, artifactDirName, stagingID))
}

// TaskOutputPath returns the output file path for a task.
func (l Layout) TaskOutputPath(planID, stagingID, taskID string) (string, error) {
	if err := ident.CheckTaskID(taskID); err != nil {
		return "", err
	}
	stagingDir, err := l.StagingArtifactDir(planID, stagingID)
	if err != nil {
		return "", err
	}
	return l.confine(filepath.Join(stagingDir, taskID+"-output.json"))
}

// Rel returns path relative to the project root in slash form, which is how
// paths are stored in the document regardless of host OS.
func (l Layout) Rel(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// confine cleans path and rejects it unless it stays under the state dir.
func (l Layout) confine(path string) (string, error) {
	cleaned := filepath.Clean(path)
	base := l.StateDir()
	rel, err := filepath.Rel(base, cleaned)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", PathEscapeError{Path: filepath.ToSlash(path), Root: filepath.ToSlash(base)}
	}
	return cleaned, nil
}
