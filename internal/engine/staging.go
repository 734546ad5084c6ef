package engine

import (
	"os"

	"github.com/planwright/planwright/internal/schema"
)

// GetStaging returns the staging with the given id.
func (m *Manager) GetStaging(stagingID string) (*schema.Staging, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	st, ok := doc.Stagings[stagingID]
	if !ok {
		return nil, NotFoundError{Kind: "staging", ID: stagingID}
	}
	return &st, nil
}

// ListStagings returns a plan's stagings in execution order.
func (m *Manager) ListStagings(planID string) ([]schema.Staging, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	plan, ok := doc.Plans[planID]
	if !ok {
		return nil, NotFoundError{Kind: "plan", ID: planID}
	}
	out := make([]schema.Staging, 0, len(plan.StagingIDs))
	for _, sid := range plan.StagingIDs {
		out = append(out, doc.Stagings[sid])
	}
	return out, nil
}

// lookupStagingInPlan resolves a staging and verifies it belongs to the named
// plan. A staging that exists under a different plan is a mismatch, which is
// a distinct failure from not-found.
func (m *Manager) lookupStagingInPlan(planID, stagingID string) (schema.Staging, error) {
	doc := m.doc
	if _, ok := doc.Plans[planID]; !ok {
		return schema.Staging{}, NotFoundError{Kind: "plan", ID: planID}
	}
	st, ok := doc.Stagings[stagingID]
	if !ok {
		return schema.Staging{}, NotFoundError{Kind: "staging", ID: stagingID}
	}
	if st.PlanID != planID {
		return schema.Staging{}, MismatchError{
			Kind:       "staging",
			ID:         stagingID,
			Claimed:    planID,
			Actual:     st.PlanID,
			ParentKind: "plan",
		}
	}
	return st, nil
}

// StartStaging moves a pending staging to in_progress. Stagings execute in
// order: staging N may only start once staging N-1 completed. On success the
// plan becomes active and the current pointers track the started staging.
func (m *Manager) StartStaging(planID, stagingID string) (*schema.Staging, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	st, err := m.lookupStagingInPlan(planID, stagingID)
	if err != nil {
		return nil, err
	}
	if st.Status != schema.StagingPending {
		return nil, InvalidStateError{
			Kind:    "staging",
			ID:      stagingID,
			Op:      "start",
			Status:  string(st.Status),
			Allowed: []string{string(schema.StagingPending)},
		}
	}

	if st.Order > 0 {
		prev, ok := m.stagingAtOrder(planID, st.Order-1)
		if ok && prev.Status != schema.StagingCompleted {
			return nil, StagingOrderError{StagingID: stagingID, BlockedBy: prev.ID}
		}
	}

	now := m.now()
	st.Status = schema.StagingInProgress
	st.StartedAt = timePtr(now)
	st.UpdatedAt = now
	doc.Stagings[stagingID] = st

	plan := doc.Plans[planID]
	if plan.Status == schema.PlanDraft {
		plan.Status = schema.PlanActive
	}
	if plan.StartedAt == nil {
		plan.StartedAt = timePtr(now)
	}
	plan.UpdatedAt = now
	doc.Plans[planID] = plan

	doc.Context.CurrentPlanID = planID
	doc.Context.CurrentStagingID = stagingID

	// The artifact directory is supplementary; the state document is the
	// source of truth. A failure here is logged, not fatal.
	if dir, derr := m.layout.StagingArtifactDir(planID, stagingID); derr != nil {
		m.log.Warn("staging artifact dir rejected", "staging", stagingID, "error", derr)
	} else if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		m.log.Warn("create staging artifact dir", "staging", stagingID, "error", mkErr)
	}

	m.appendHistory("staging.started", stagingID, "")
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Stagings[stagingID]
	return &out, nil
}

// CompleteStaging explicitly completes an in_progress staging. Every task in
// it must already be done.
func (m *Manager) CompleteStaging(planID, stagingID string) (*schema.Staging, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	st, err := m.lookupStagingInPlan(planID, stagingID)
	if err != nil {
		return nil, err
	}
	if st.Status != schema.StagingInProgress {
		return nil, InvalidStateError{
			Kind:    "staging",
			ID:      stagingID,
			Op:      "complete",
			Status:  string(st.Status),
			Allowed: []string{string(schema.StagingInProgress)},
		}
	}
	for _, tid := range st.TaskIDs {
		if t := doc.Tasks[tid]; t.Status != schema.TaskDone {
			return nil, InvalidStateError{
				Kind:    "task",
				ID:      tid,
				Op:      "complete staging with",
				Status:  string(t.Status),
				Allowed: []string{string(schema.TaskDone)},
			}
		}
	}

	m.completeStaging(stagingID)
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Stagings[stagingID]
	return &out, nil
}

// completeStaging timestamps the staging, appends history, and re-checks the
// owning plan for auto-completion. Callers persist.
func (m *Manager) completeStaging(stagingID string) {
	doc := m.doc
	st := doc.Stagings[stagingID]

	now := m.now()
	st.Status = schema.StagingCompleted
	st.CompletedAt = timePtr(now)
	st.UpdatedAt = now
	doc.Stagings[stagingID] = st

	if doc.Context.CurrentStagingID == stagingID {
		doc.Context.CurrentStagingID = ""
	}

	m.appendHistory("staging.completed", stagingID, "")
	m.checkPlanCompletion(st.PlanID)
}

// checkStagingCompletion auto-completes an in_progress staging once every
// task in it is done. Callers persist.
func (m *Manager) checkStagingCompletion(stagingID string) {
	doc := m.doc
	st, ok := doc.Stagings[stagingID]
	if !ok || st.Status != schema.StagingInProgress {
		return
	}
	if len(st.TaskIDs) == 0 {
		return
	}
	for _, tid := range st.TaskIDs {
		if doc.Tasks[tid].Status != schema.TaskDone {
			return
		}
	}
	m.completeStaging(stagingID)
}

// AddStaging appends a staging (with optional tasks) to the end of a
// non-terminal plan.
func (m *Manager) AddStaging(planID string, def StagingDefinition) (*schema.Staging, error) {
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
			Op:      "add staging to",
			Status:  string(plan.Status),
			Allowed: []string{string(schema.PlanDraft), string(schema.PlanActive)},
		}
	}

	now := m.now()
	staging, tasks, err := m.assembleStaging(doc, planID, len(plan.StagingIDs), def, map[string]schema.Staging{}, now)
	if err != nil {
		return nil, err
	}

	adjacency := map[string][]string{}
	for id, t := range tasks {
		adjacency[id] = t.DependsOn
	}
	if cycle := schema.CycleInGraph(adjacency); len(cycle) > 0 {
		return nil, CircularDependencyError{Cycle: cycle}
	}

	doc.Stagings[staging.ID] = staging
	for id, t := range tasks {
		doc.Tasks[id] = t
	}
	plan.StagingIDs = append(plan.StagingIDs, staging.ID)
	plan.UpdatedAt = now
	doc.Plans[planID] = plan

	m.appendHistory("staging.added", staging.ID, staging.Title)
	if err := m.persist(); err != nil {
		return nil, err
	}

	out := doc.Stagings[staging.ID]
	return &out, nil
}

// RemoveStaging deletes a staging and its tasks. An in_progress staging
// cannot be removed. Remaining stagings are resequenced so order values stay
// contiguous from zero.
func (m *Manager) RemoveStaging(planID, stagingID string) error {
	_, err := m.requireDoc()
	if err != nil {
		return err
	}
	st, err := m.lookupStagingInPlan(planID, stagingID)
	if err != nil {
		return err
	}
	if st.Status == schema.StagingInProgress {
		return InvalidStateError{
			Kind:   "staging",
			ID:     stagingID,
			Op:     "remove",
			Status: string(st.Status),
			Allowed: []string{
				string(schema.StagingPending),
				string(schema.StagingCompleted),
				string(schema.StagingFailed),
				string(schema.StagingCancelled),
			},
		}
	}

	doc := m.doc
	now := m.now()

	for _, tid := range st.TaskIDs {
		delete(doc.Tasks, tid)
	}
	delete(doc.Stagings, stagingID)

	plan := doc.Plans[planID]
	kept := make([]string, 0, len(plan.StagingIDs))
	for _, sid := range plan.StagingIDs {
		if sid != stagingID {
			kept = append(kept, sid)
		}
	}
	plan.StagingIDs = kept
	plan.UpdatedAt = now
	doc.Plans[planID] = plan

	for i, sid := range kept {
		sibling := doc.Stagings[sid]
		if sibling.Order != i {
			sibling.Order = i
			sibling.UpdatedAt = now
			doc.Stagings[sid] = sibling
		}
	}

	if doc.Context.CurrentStagingID == stagingID {
		doc.Context.CurrentStagingID = ""
	}

	m.appendHistory("staging.removed", stagingID, st.Title)
	return m.persist()
}

func (m *Manager) stagingAtOrder(planID string, order int) (schema.Staging, bool) {
	plan := m.doc.Plans[planID]
	for _, sid := range plan.StagingIDs {
		st := m.doc.Stagings[sid]
		if st.Order == order {
			return st, true
		}
	}
	return schema.Staging{}, false
}
