package engine

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwright/planwright/internal/schema"
)

func TestAddTaskWithDeps(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	first := stagings(t, m, plan.ID)[0]
	build := tasks(t, m, first.ID)

	task, err := m.AddTask(first.ID, TaskDefinition{
		Title:    "polish",
		Priority: schema.PriorityLow,
	}, []string{build[1].ID})
	require.NoError(t, err)
	assert.Equal(t, []string{build[1].ID}, task.DependsOn)
	assert.Equal(t, first.ID, task.StagingID)
	assert.Equal(t, plan.ID, task.PlanID)

	got, err := m.GetStaging(first.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.TaskIDs[len(got.TaskIDs)-1])
}

func TestAddTaskRejectsBadDeps(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	sts := stagings(t, m, plan.ID)
	foreign := tasks(t, m, sts[1].ID)[0]

	_, err := m.AddTask(sts[0].ID, TaskDefinition{Title: "x"}, []string{"task-zzzzzzzz"})
	var notFound NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "task", notFound.Kind)

	_, err = m.AddTask(sts[0].ID, TaskDefinition{Title: "x"}, []string{foreign.ID})
	var mismatch MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, sts[0].ID, mismatch.Claimed)
	assert.Equal(t, sts[1].ID, mismatch.Actual)
}

func TestAddTaskRejectedOnCompletedStaging(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	first := stagings(t, m, plan.ID)[0]

	_, err := m.StartStaging(plan.ID, first.ID)
	require.NoError(t, err)
	for _, task := range tasks(t, m, first.ID) {
		finishTask(t, m, task.ID)
	}

	_, err = m.AddTask(first.ID, TaskDefinition{Title: "late"}, nil)
	var stateErr InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestUpdateTaskFields(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	first := stagings(t, m, plan.ID)[0]
	build := tasks(t, m, first.ID)

	title := "write chapter one"
	prio := schema.PriorityHigh
	task, err := m.UpdateTask(build[0].ID, TaskUpdate{Title: &title, Priority: &prio})
	require.NoError(t, err)
	assert.Equal(t, title, task.Title)
	assert.Equal(t, prio, task.Priority)

	// Unset fields stay untouched.
	assert.Equal(t, build[0].Description, task.Description)
	assert.Equal(t, build[0].DependsOn, task.DependsOn)
}

func TestUpdateTaskRejectsCycleAndLeavesDepsIntact(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	first := stagings(t, m, plan.ID)[0]
	build := tasks(t, m, first.ID)

	// review already depends on write; write -> review would close the loop.
	deps := []string{build[1].ID}
	_, err := m.UpdateTask(build[0].ID, TaskUpdate{DependsOn: &deps})

	var cycleErr CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, cycleErr.Cycle[0], cycleErr.Cycle[len(cycleErr.Cycle)-1])

	got, err := m.GetTask(build[0].ID)
	require.NoError(t, err)
	assert.Empty(t, got.DependsOn, "rejected dep set must not be applied")
}

func TestUpdateTaskRejectsSelfDep(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	first := stagings(t, m, plan.ID)[0]
	build := tasks(t, m, first.ID)

	deps := []string{build[0].ID}
	_, err := m.UpdateTask(build[0].ID, TaskUpdate{DependsOn: &deps})
	var inputErr InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestUpdateTaskRejectedOnTerminalTask(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	first := stagings(t, m, plan.ID)[0]
	build := tasks(t, m, first.ID)

	_, err := m.StartStaging(plan.ID, first.ID)
	require.NoError(t, err)
	finishTask(t, m, build[0].ID)

	title := "rename"
	_, err = m.UpdateTask(build[0].ID, TaskUpdate{Title: &title})
	var stateErr InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestRemoveTaskDropsDependentEdges(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	first := stagings(t, m, plan.ID)[0]
	build := tasks(t, m, first.ID)

	require.NoError(t, m.RemoveTask(build[0].ID))

	_, err := m.GetTask(build[0].ID)
	var notFound NotFoundError
	require.ErrorAs(t, err, &notFound)

	review, err := m.GetTask(build[1].ID)
	require.NoError(t, err)
	assert.Empty(t, review.DependsOn)

	got, err := m.GetStaging(first.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{build[1].ID}, got.TaskIDs)
}

func TestRemoveTaskRejectsInProgress(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	first := stagings(t, m, plan.ID)[0]
	build := tasks(t, m, first.ID)

	_, err := m.StartStaging(plan.ID, first.ID)
	require.NoError(t, err)
	_, err = m.UpdateTaskStatus(build[0].ID, schema.TaskInProgress, "")
	require.NoError(t, err)

	err = m.RemoveTask(build[0].ID)
	var stateErr InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestTaskOutputRoundtrip(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	first := stagings(t, m, plan.ID)[0]
	build := tasks(t, m, first.ID)

	output := schema.TaskOutput{
		Status:        "success",
		Summary:       "chapter drafted",
		ArtifactPaths: []string{"draft.md"},
		Data:          map[string]any{"words": float64(1200)},
	}

	task, err := m.SaveTaskOutput(build[0].ID, output)
	require.NoError(t, err)
	require.NotNil(t, task.Output)
	assert.Equal(t, "success", task.Output.Status)

	// The artifact file lands under the staging's artifact directory.
	path, err := m.Layout().TaskOutputPath(plan.ID, first.ID, build[0].ID)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	got, err := m.LoadTaskOutput(build[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, output, *got)
}

func TestLoadTaskOutputMissingArtifact(t *testing.T) {
	m := newTestManager(t)
	plan := seedPlan(t, m)
	first := stagings(t, m, plan.ID)[0]
	build := tasks(t, m, first.ID)

	got, err := m.LoadTaskOutput(build[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
