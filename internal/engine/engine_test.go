package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwright/planwright/internal/schema"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tickingClock returns a clock that advances one second per call, so
// consecutive operations get distinct, ordered timestamps.
func tickingClock() func() time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger()), WithClock(tickingClock())}, opts...)
	m := New(t.TempDir(), opts...)
	require.NoError(t, m.Load())
	_, err := m.CreateProject("demo", "engine test project", []string{"ship"}, nil)
	require.NoError(t, err)
	return m
}

// seedPlan creates the standard fixture: staging 0 is sequential with tasks
// "write" and "review" (review depends on write), staging 1 is parallel with
// tasks "deploy" and "announce".
func seedPlan(t *testing.T, m *Manager) *schema.Plan {
	t.Helper()
	plan, err := m.CreatePlan(PlanDefinition{
		Title:       "Release v2",
		Description: "ship the rewrite",
		Stagings: []StagingDefinition{
			{
				Title:         "Build",
				ExecutionType: schema.ExecutionSequential,
				Tasks: []TaskDefinition{
					{Title: "write"},
					{Title: "review", DependsOn: []int{0}},
				},
			},
			{
				Title:         "Ship",
				ExecutionType: schema.ExecutionParallel,
				Tasks: []TaskDefinition{
					{Title: "deploy"},
					{Title: "announce"},
				},
			},
		},
	})
	require.NoError(t, err)
	return plan
}

// stagings returns the fixture plan's stagings in execution order.
func stagings(t *testing.T, m *Manager, planID string) []schema.Staging {
	t.Helper()
	out, err := m.ListStagings(planID)
	require.NoError(t, err)
	return out
}

// tasks returns a staging's tasks in their defined order.
func tasks(t *testing.T, m *Manager, stagingID string) []schema.Task {
	t.Helper()
	out, err := m.ListTasks(stagingID)
	require.NoError(t, err)
	return out
}

// finishTask walks one task through pending -> in_progress -> done.
func finishTask(t *testing.T, m *Manager, taskID string) {
	t.Helper()
	_, err := m.UpdateTaskStatus(taskID, schema.TaskInProgress, "")
	require.NoError(t, err)
	_, err = m.UpdateTaskStatus(taskID, schema.TaskDone, "")
	require.NoError(t, err)
}

// completePlan runs the fixture plan to completion.
func completePlan(t *testing.T, m *Manager, planID string) {
	t.Helper()
	for _, st := range stagings(t, m, planID) {
		_, err := m.StartStaging(planID, st.ID)
		require.NoError(t, err)
		for _, task := range tasks(t, m, st.ID) {
			finishTask(t, m, task.ID)
		}
	}
}

func TestOperationsRequireInitialization(t *testing.T) {
	m := New(t.TempDir(), WithLogger(quietLogger()))
	require.NoError(t, m.Load())
	require.False(t, m.Initialized())

	var notInit NotInitializedError

	_, err := m.GetPlan("plan-a1b2c3d4")
	require.ErrorAs(t, err, &notInit)

	_, err = m.CreatePlan(PlanDefinition{Title: "x"})
	require.ErrorAs(t, err, &notInit)

	_, err = m.ListMemories(false)
	require.ErrorAs(t, err, &notInit)

	_, err = m.History()
	require.ErrorAs(t, err, &notInit)
	assert.Equal(t, CodeNotInitialized, notInit.Code())
}

func TestCreateProjectTwiceFails(t *testing.T) {
	m := newTestManager(t)

	_, err := m.CreateProject("again", "", nil, nil)
	var stateErr InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "project", stateErr.Kind)
}

func TestUpdateProject(t *testing.T) {
	m := newTestManager(t)

	p, err := m.UpdateProject("new description", []string{" ship ", ""}, []string{"no downtime"})
	require.NoError(t, err)
	assert.Equal(t, "new description", p.Description)
	assert.Equal(t, []string{"ship"}, p.Goals)
	assert.Equal(t, []string{"no downtime"}, p.Constraints)
}

func TestEveryMutationIsVisibleAfterReload(t *testing.T) {
	root := t.TempDir()
	m := New(root, WithLogger(quietLogger()), WithClock(tickingClock()))
	require.NoError(t, m.Load())
	_, err := m.CreateProject("demo", "", nil, nil)
	require.NoError(t, err)
	plan := seedPlan(t, m)

	fresh := New(root, WithLogger(quietLogger()))
	require.NoError(t, fresh.Load())
	require.True(t, fresh.Initialized())

	got, err := fresh.GetPlan(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Title, got.Title)
	assert.Len(t, got.StagingIDs, 2)
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	m := newTestManager(t, WithHistoryLimit(5))
	seedPlan(t, m)

	for i := 0; i < 6; i++ {
		_, err := m.RecordDecision("decision", "")
		require.NoError(t, err)
	}

	history, err := m.History()
	require.NoError(t, err)
	require.Len(t, history, 5)
	for _, entry := range history {
		assert.Equal(t, "decision.recorded", entry.Action)
	}
}

func TestHistoryIsChronological(t *testing.T) {
	m := newTestManager(t)
	seedPlan(t, m)

	history, err := m.History()
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "project.created", history[0].Action)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Timestamp.Before(history[i-1].Timestamp))
	}
}

func TestRevisionChangesOnEveryPersist(t *testing.T) {
	m := newTestManager(t)

	before := m.doc.Context.Revision
	seedPlan(t, m)
	after := m.doc.Context.Revision

	assert.NotEmpty(t, before)
	assert.NotEqual(t, before, after)
}
