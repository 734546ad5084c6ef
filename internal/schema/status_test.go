package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskTransitionTable(t *testing.T) {
	all := []TaskStatus{TaskPending, TaskInProgress, TaskDone, TaskBlocked, TaskCancelled}

	legal := map[TaskStatus][]TaskStatus{
		TaskPending:    {TaskInProgress, TaskBlocked, TaskCancelled},
		TaskInProgress: {TaskDone, TaskBlocked, TaskCancelled},
		TaskBlocked:    {TaskInProgress, TaskCancelled},
		TaskDone:       {},
		TaskCancelled:  {},
	}

	for _, from := range all {
		allowed := map[TaskStatus]bool{}
		for _, to := range legal[from] {
			allowed[to] = true
		}
		for _, to := range all {
			got := from.CanTransitionTo(to)
			assert.Equal(t, allowed[to], got, "%s -> %s", from, to)
		}
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	assert.True(t, TaskDone.Terminal())
	assert.True(t, TaskCancelled.Terminal())
	assert.False(t, TaskPending.Terminal())
	assert.False(t, TaskInProgress.Terminal())
	assert.False(t, TaskBlocked.Terminal())
}

func TestAllowedTargetsCopies(t *testing.T) {
	targets := TaskPending.AllowedTargets()
	require.NotEmpty(t, targets)
	targets[0] = TaskDone

	// Mutating the returned slice must not corrupt the table.
	assert.False(t, TaskPending.CanTransitionTo(TaskDone))
}

func TestParseStatusFunctions(t *testing.T) {
	_, ok := ParseTaskStatus("done")
	assert.True(t, ok)
	_, ok = ParseTaskStatus("finished")
	assert.False(t, ok)

	_, ok = ParsePlanStatus("archived")
	assert.True(t, ok)
	_, ok = ParsePlanStatus("deleted")
	assert.False(t, ok)

	_, ok = ParseStagingStatus("in_progress")
	assert.True(t, ok)
	_, ok = ParseStagingStatus("paused")
	assert.False(t, ok)

	_, ok = ParsePriority("high")
	assert.True(t, ok)
	_, ok = ParsePriority("urgent")
	assert.False(t, ok)

	_, ok = ParseExecutionType("parallel")
	assert.True(t, ok)
	_, ok = ParseExecutionType("serial")
	assert.False(t, ok)
}

func TestPlanStatusTerminal(t *testing.T) {
	assert.True(t, PlanCompleted.Terminal())
	assert.True(t, PlanCancelled.Terminal())
	assert.False(t, PlanDraft.Terminal())
	assert.False(t, PlanActive.Terminal())
	assert.False(t, PlanArchived.Terminal())
}
