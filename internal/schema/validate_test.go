package schema

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := NewDocument(Project{Name: "demo", CreatedAt: now, UpdatedAt: now})

	d.Plans["plan-00000001"] = Plan{
		ID:         "plan-00000001",
		Title:      "Build pipeline",
		Status:     PlanActive,
		StagingIDs: []string{"staging-0001", "staging-0002"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	d.Stagings["staging-0001"] = Staging{
		ID:            "staging-0001",
		PlanID:        "plan-00000001",
		Title:         "Design",
		Order:         0,
		ExecutionType: ExecutionSequential,
		Status:        StagingCompleted,
		TaskIDs:       []string{"task-00000001"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	d.Stagings["staging-0002"] = Staging{
		ID:            "staging-0002",
		PlanID:        "plan-00000001",
		Title:         "Implement",
		Order:         1,
		ExecutionType: ExecutionParallel,
		Status:        StagingPending,
		TaskIDs:       []string{"task-00000002", "task-00000003"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	d.Tasks["task-00000001"] = Task{
		ID: "task-00000001", StagingID: "staging-0001", PlanID: "plan-00000001",
		Title: "Sketch", Priority: PriorityMedium, ExecutionMode: ExecutionSequential,
		Status: TaskDone, DependsOn: []string{}, CreatedAt: now, UpdatedAt: now,
	}
	d.Tasks["task-00000002"] = Task{
		ID: "task-00000002", StagingID: "staging-0002", PlanID: "plan-00000001",
		Title: "Write", Priority: PriorityHigh, ExecutionMode: ExecutionParallel,
		Status: TaskPending, DependsOn: []string{}, CreatedAt: now, UpdatedAt: now,
	}
	d.Tasks["task-00000003"] = Task{
		ID: "task-00000003", StagingID: "staging-0002", PlanID: "plan-00000001",
		Title: "Review", Priority: PriorityLow, ExecutionMode: ExecutionParallel,
		Status: TaskPending, DependsOn: []string{"task-00000002"}, CreatedAt: now, UpdatedAt: now,
	}
	return d
}

func hasViolation(errs []ValidationError, pathFragment string) bool {
	for _, e := range errs {
		if strings.Contains(e.Path, pathFragment) {
			return true
		}
	}
	return false
}

func TestValidateCleanDocument(t *testing.T) {
	assert.Empty(t, Validate(*sampleDocument()))
}

func TestValidateVersion(t *testing.T) {
	d := sampleDocument()
	d.Version = "0.9.0"
	errs := Validate(*d)
	require.NotEmpty(t, errs)
	assert.True(t, hasViolation(errs, "$.version"))

	d.Version = ""
	assert.True(t, hasViolation(Validate(*d), "$.version"))
}

func TestValidateNilMapsShortCircuit(t *testing.T) {
	d := sampleDocument()
	d.Tasks = nil
	errs := Validate(*d)
	require.Len(t, errs, 1)
	assert.Equal(t, "$.tasks", errs[0].Path)
}

func TestValidateStagingBackReference(t *testing.T) {
	d := sampleDocument()
	st := d.Stagings["staging-0002"]
	st.PlanID = "plan-99999999"
	d.Stagings["staging-0002"] = st

	errs := Validate(*d)
	assert.True(t, hasViolation(errs, `$.stagings["staging-0002"].planId`))
}

func TestValidateNonContiguousOrders(t *testing.T) {
	d := sampleDocument()
	st := d.Stagings["staging-0002"]
	st.Order = 5
	d.Stagings["staging-0002"] = st

	errs := Validate(*d)
	assert.True(t, hasViolation(errs, "stagingIds"))
}

func TestValidateCrossStagingDep(t *testing.T) {
	d := sampleDocument()
	task := d.Tasks["task-00000002"]
	task.DependsOn = []string{"task-00000001"}
	d.Tasks["task-00000002"] = task

	errs := Validate(*d)
	assert.True(t, hasViolation(errs, `$.tasks["task-00000002"].dependsOn[0]`))
}

func TestValidateSelfDep(t *testing.T) {
	d := sampleDocument()
	task := d.Tasks["task-00000002"]
	task.DependsOn = []string{"task-00000002"}
	d.Tasks["task-00000002"] = task

	errs := Validate(*d)
	assert.True(t, hasViolation(errs, `$.tasks["task-00000002"].dependsOn[0]`))
}

func TestValidateDepCycle(t *testing.T) {
	d := sampleDocument()
	a := d.Tasks["task-00000002"]
	a.DependsOn = []string{"task-00000003"}
	d.Tasks["task-00000002"] = a

	errs := Validate(*d)
	found := false
	for _, e := range errs {
		if e.Path == "$.tasks" && strings.Contains(e.Message, "cycle") {
			found = true
		}
	}
	assert.True(t, found, "expected a cycle violation, got %v", errs)
}

func TestValidateContextPointers(t *testing.T) {
	d := sampleDocument()
	d.Context.CurrentPlanID = "plan-99999999"
	d.Context.CurrentStagingID = "staging-9999"

	errs := Validate(*d)
	assert.True(t, hasViolation(errs, "$.context.currentPlanId"))
	assert.True(t, hasViolation(errs, "$.context.currentStagingId"))
}

func TestValidateMemoryPriorityBounds(t *testing.T) {
	d := sampleDocument()
	now := time.Now().UTC()
	d.Context.Memories["mem-00000001"] = Memory{
		ID: "mem-00000001", Content: "prefer table tests", Priority: 150,
		Enabled: true, CreatedAt: now, UpdatedAt: now,
	}

	errs := Validate(*d)
	assert.True(t, hasViolation(errs, `$.context.memories["mem-00000001"].priority`))
}

func TestValidateNilContextCollections(t *testing.T) {
	d := sampleDocument()
	d.Context.Memories = nil
	d.Context.Decisions = nil
	d.History = nil

	errs := Validate(*d)
	assert.True(t, hasViolation(errs, "$.context.memories"))
	assert.True(t, hasViolation(errs, "$.context.decisions"))
	assert.True(t, hasViolation(errs, "$.history"))
}

func TestValidateNilDependsOn(t *testing.T) {
	d := sampleDocument()
	task := d.Tasks["task-00000002"]
	task.DependsOn = nil
	d.Tasks["task-00000002"] = task

	errs := Validate(*d)
	assert.True(t, hasViolation(errs, `$.tasks["task-00000002"].dependsOn`))
}
