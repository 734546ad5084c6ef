package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwright/planwright/internal/ident"
)

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("/work/project")

	assert.Equal(t, filepath.Join("/work/project", ".claude"), l.StateDir())
	assert.Equal(t, filepath.Join("/work/project", ".claude", "state.json"), l.StatePath())

	planDir, err := l.PlanDir("plan-a1b2c3d4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.StateDir(), "plans", "plan-a1b2c3d4"), planDir)

	archived, err := l.ArchivedPlanDir("plan-a1b2c3d4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.StateDir(), "archive", "plan-a1b2c3d4"), archived)

	stagingDir, err := l.StagingArtifactDir("plan-a1b2c3d4", "staging-ab12")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(planDir, "artifacts", "staging-ab12"), stagingDir)

	outPath, err := l.TaskOutputPath("plan-a1b2c3d4", "staging-ab12", "task-a1b2c3d4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(stagingDir, "task-a1b2c3d4-output.json"), outPath)
}

func TestLayoutRejectsMalformedIDs(t *testing.T) {
	l := NewLayout(t.TempDir())

	var idErr ident.InvalidIDError

	_, err := l.PlanDir("plan-../../etc")
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, "plan", idErr.Kind)

	_, err = l.StagingArtifactDir("plan-a1b2c3d4", "staging-....")
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, "staging", idErr.Kind)

	_, err = l.TaskOutputPath("plan-a1b2c3d4", "staging-ab12", "task-a/b2c3d4")
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, "task", idErr.Kind)
}

func TestConfineRejectsEscape(t *testing.T) {
	l := NewLayout("/work/project")

	_, err := l.confine("/work/project/.claude/../../outside")
	var escErr PathEscapeError
	require.ErrorAs(t, err, &escErr)

	_, err = l.confine("/work/project/.claude/plans/plan-a1b2c3d4")
	assert.NoError(t, err)
}

func TestRelSlashForm(t *testing.T) {
	l := NewLayout("/work/project")
	rel := l.Rel(filepath.Join("/work/project", ".claude", "plans", "plan-a1b2c3d4"))
	assert.Equal(t, ".claude/plans/plan-a1b2c3d4", rel)
}
