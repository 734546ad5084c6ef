package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/planwright/planwright/internal/ident"
	"github.com/planwright/planwright/internal/schema"
)

// TaskDefinition describes a task inside a plan definition. Dependencies are
// given as indexes into the owning staging's task list and resolved to
// generated ids at creation time.
type TaskDefinition struct {
	Title         string
	Description   string
	Priority      schema.Priority
	ExecutionMode schema.ExecutionType
	DependsOn     []int
}

// StagingDefinition describes one staging inside a plan definition.
type StagingDefinition struct {
	Title         string
	Description   string
	ExecutionType schema.ExecutionType
	Tasks         []TaskDefinition
	// ArtifactRefs may point at stagings that already exist, or at earlier
	// stagings of this same definition (the engine resolves those ids as it
	// assembles the plan).
	ArtifactRefs []schema.ArtifactRef
}

// PlanDefinition is the input to CreatePlan.
type PlanDefinition struct {
	Title       string
	Description string
	Stagings    []StagingDefinition
}

// CreatePlan assembles a plan with its stagings and tasks, resolves
// index-based intra-staging dependencies to ids, and commits the whole
// structure at once. Nothing is visible in the store until every check,
// including cycle detection, has passed.
func (m *Manager) CreatePlan(def PlanDefinition) (*schema.Plan, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(def.Title) == "" {
		return nil, InputError{Field: "title", Message: "required"}
	}

	now := m.now()
	planID := m.freshPlanID()

	plan := schema.Plan{
		ID:          planID,
		Title:       strings.TrimSpace(def.Title),
		Description: strings.TrimSpace(def.Description),
		Status:      schema.PlanDraft,
		StagingIDs:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	planDir, err := m.layout.PlanDir(planID)
	if err != nil {
		return nil, err
	}
	plan.ArtifactRoot = m.layout.Rel(planDir)

	newStagings := map[string]schema.Staging{}
	newTasks := map[string]schema.Task{}

	for order, sdef := range def.Stagings {
		staging, tasks, err := m.assembleStaging(doc, planID, order, sdef, newStagings, now)
		if err != nil {
			return nil, err
		}
		newStagings[staging.ID] = staging
		for id, t := range tasks {
			newTasks[id] = t
		}
		plan.StagingIDs = append(plan.StagingIDs, staging.ID)
	}

	// Cycle check over the proposed edges before anything is committed.
	adjacency := map[string][]string{}
	for id, t := range newTasks {
		adjacency[id] = t.DependsOn
	}
	if cycle := schema.CycleInGraph(adjacency); len(cycle) > 0 {
		return nil, CircularDependencyError{Cycle: cycle}
	}

	doc.Plans[planID] = plan
	for id, st := range newStagings {
		doc.Stagings[id] = st
	}
	for id, t := range newTasks {
		doc.Tasks[id] = t
	}

	m.appendHistory("plan.created", planID, plan.Title)
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Plans[planID]
	return &out, nil
}

// assembleStaging builds one staging and its tasks without touching the
// document. pending holds earlier stagings of this same definition so
// artifact refs can point backwards within the plan being created.
func (m *Manager) assembleStaging(
	doc *schema.Document,
	planID string,
	order int,
	def StagingDefinition,
	pending map[string]schema.Staging,
	now time.Time,
) (schema.Staging, map[string]schema.Task, error) {
	if strings.TrimSpace(def.Title) == "" {
		return schema.Staging{}, nil, InputError{
			Field:   fmt.Sprintf("stagings[%d].title", order),
			Message: "required",
		}
	}

	executionType := def.ExecutionType
	if executionType == "" {
		executionType = schema.ExecutionSequential
	}
	if _, ok := schema.ParseExecutionType(string(executionType)); !ok {
		return schema.Staging{}, nil, InputError{
			Field:   fmt.Sprintf("stagings[%d].executionType", order),
			Message: fmt.Sprintf("unknown execution type %q", executionType),
		}
	}

	stagingID := m.freshStagingID(pending)

	// Cross-staging refs are read-only pointers; they must name a staging
	// that exists, either in the store or earlier in this definition.
	for i, ref := range def.ArtifactRefs {
		_, inStore := doc.Stagings[ref.StagingID]
		_, inPending := pending[ref.StagingID]
		if !inStore && !inPending {
			return schema.Staging{}, nil, InputError{
				Field:   fmt.Sprintf("stagings[%d].artifactRefs[%d]", order, i),
				Message: fmt.Sprintf("unknown staging id %q", ref.StagingID),
			}
		}
	}

	artifactDir, err := m.layout.StagingArtifactDir(planID, stagingID)
	if err != nil {
		return schema.Staging{}, nil, err
	}

	staging := schema.Staging{
		ID:            stagingID,
		PlanID:        planID,
		Title:         strings.TrimSpace(def.Title),
		Description:   strings.TrimSpace(def.Description),
		Order:         order,
		ExecutionType: executionType,
		Status:        schema.StagingPending,
		TaskIDs:       []string{},
		ArtifactPath:  m.layout.Rel(artifactDir),
		ArtifactRefs:  def.ArtifactRefs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tasks := map[string]schema.Task{}
	ids := make([]string, len(def.Tasks))
	for i := range def.Tasks {
		ids[i] = m.freshTaskID(tasks)
		tasks[ids[i]] = schema.Task{} // reserve the id
	}

	for i, tdef := range def.Tasks {
		if strings.TrimSpace(tdef.Title) == "" {
			return schema.Staging{}, nil, InputError{
				Field:   fmt.Sprintf("stagings[%d].tasks[%d].title", order, i),
				Message: "required",
			}
		}

		priority := tdef.Priority
		if priority == "" {
			priority = schema.PriorityMedium
		}
		if _, ok := schema.ParsePriority(string(priority)); !ok {
			return schema.Staging{}, nil, InputError{
				Field:   fmt.Sprintf("stagings[%d].tasks[%d].priority", order, i),
				Message: fmt.Sprintf("unknown priority %q", priority),
			}
		}

		mode := tdef.ExecutionMode
		if mode == "" {
			mode = executionType
		}
		if _, ok := schema.ParseExecutionType(string(mode)); !ok {
			return schema.Staging{}, nil, InputError{
				Field:   fmt.Sprintf("stagings[%d].tasks[%d].executionMode", order, i),
				Message: fmt.Sprintf("unknown execution mode %q", mode),
			}
		}

		// Resolve index-based deps to the ids generated above.
		deps := make([]string, 0, len(tdef.DependsOn))
		for _, idx := range tdef.DependsOn {
			if idx < 0 || idx >= len(def.Tasks) {
				return schema.Staging{}, nil, InputError{
					Field:   fmt.Sprintf("stagings[%d].tasks[%d].dependsOn", order, i),
					Message: fmt.Sprintf("task index %d out of range (valid: 0..%d)", idx, len(def.Tasks)-1),
				}
			}
			if idx == i {
				return schema.Staging{}, nil, InputError{
					Field:   fmt.Sprintf("stagings[%d].tasks[%d].dependsOn", order, i),
					Message: "task cannot depend on itself",
				}
			}
			deps = append(deps, ids[idx])
		}

		tasks[ids[i]] = schema.Task{
			ID:            ids[i],
			StagingID:     stagingID,
			PlanID:        planID,
			Title:         strings.TrimSpace(tdef.Title),
			Description:   strings.TrimSpace(tdef.Description),
			Priority:      priority,
			ExecutionMode: mode,
			Status:        schema.TaskPending,
			DependsOn:     deps,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		staging.TaskIDs = append(staging.TaskIDs, ids[i])
	}

	return staging, tasks, nil
}

func (m *Manager) freshPlanID() string {
	for {
		id := ident.NewPlanID()
		if _, ok := m.doc.Plans[id]; !ok {
			return id
		}
	}
}

func (m *Manager) freshStagingID(pending map[string]schema.Staging) string {
	for {
		id := ident.NewStagingID()
		if _, ok := m.doc.Stagings[id]; ok {
			continue
		}
		if _, ok := pending[id]; ok {
			continue
		}
		return id
	}
}

func (m *Manager) freshTaskID(pending map[string]schema.Task) string {
	for {
		id := ident.NewTaskID()
		if _, ok := m.doc.Tasks[id]; ok {
			continue
		}
		if _, ok := pending[id]; ok {
			continue
		}
		return id
	}
}

// GetPlan returns the plan with the given id.
func (m *Manager) GetPlan(planID string) (*schema.Plan, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	plan, ok := doc.Plans[planID]
	if !ok {
		return nil, NotFoundError{Kind: "plan", ID: planID}
	}
	return &plan, nil
}

// ListPlans returns all plans, optionally filtered by status, ordered by
// creation time.
func (m *Manager) ListPlans(status schema.PlanStatus) ([]schema.Plan, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	out := make([]schema.Plan, 0, len(doc.Plans))
	for _, p := range doc.Plans {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	sortPlans(out)
	return out, nil
}

// CancelPlan cancels a plan and every non-terminal staging and task beneath
// it, then clears the current pointers if they referenced it.
func (m *Manager) CancelPlan(planID, note string) (*schema.Plan, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	plan, ok := doc.Plans[planID]
	if !ok {
		return nil, NotFoundError{Kind: "plan", ID: planID}
	}
	if plan.Status != schema.PlanDraft && plan.Status != schema.PlanActive {
		return nil, InvalidStateError{
			Kind:    "plan",
			ID:      planID,
			Op:      "cancel",
			Status:  string(plan.Status),
			Allowed: []string{string(schema.PlanDraft), string(schema.PlanActive)},
		}
	}

	now := m.now()
	for _, sid := range plan.StagingIDs {
		st := doc.Stagings[sid]
		if !st.Status.Terminal() {
			st.Status = schema.StagingCancelled
			st.UpdatedAt = now
			doc.Stagings[sid] = st
		}
		for _, tid := range st.TaskIDs {
			t := doc.Tasks[tid]
			if !t.Status.Terminal() {
				t.Status = schema.TaskCancelled
				t.UpdatedAt = now
				doc.Tasks[tid] = t
			}
		}
	}

	plan.Status = schema.PlanCancelled
	plan.UpdatedAt = now
	doc.Plans[planID] = plan
	m.clearPointersFor(planID)

	m.appendHistory("plan.cancelled", planID, note)
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Plans[planID]
	return &out, nil
}

// checkPlanCompletion auto-completes the plan once every staging completed,
// clearing the current pointers. Callers persist.
func (m *Manager) checkPlanCompletion(planID string) {
	doc := m.doc
	plan, ok := doc.Plans[planID]
	if !ok || plan.Status == schema.PlanCompleted {
		return
	}
	if len(plan.StagingIDs) == 0 {
		return
	}
	for _, sid := range plan.StagingIDs {
		if doc.Stagings[sid].Status != schema.StagingCompleted {
			return
		}
	}

	now := m.now()
	plan.Status = schema.PlanCompleted
	plan.CompletedAt = timePtr(now)
	plan.UpdatedAt = now
	doc.Plans[planID] = plan
	m.clearPointersFor(planID)
	m.appendHistory("plan.completed", planID, "")
}

func (m *Manager) clearPointersFor(planID string) {
	if m.doc.Context.CurrentPlanID == planID {
		m.doc.Context.CurrentPlanID = ""
		m.doc.Context.CurrentStagingID = ""
	}
}

func sortPlans(plans []schema.Plan) {
	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].ID < plans[j].ID
		}
		return plans[i].CreatedAt.Before(plans[j].CreatedAt)
	})
}
