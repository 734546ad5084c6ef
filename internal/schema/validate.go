package schema

import (
	"fmt"
	"sort"
)

// ValidationError reports one schema violation at a JSON path.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks every structural invariant of the document. It returns all
// violations found, not just the first, so a caller can report a broken file
// in one pass.
func Validate(d Document) []ValidationError {
	var errs []ValidationError

	if d.Version == "" {
		errs = append(errs, ValidationError{Path: "$.version", Message: "required"})
	} else if d.Version != Version {
		errs = append(errs, ValidationError{
			Path:    "$.version",
			Message: fmt.Sprintf("unsupported version %q (expected %q)", d.Version, Version),
		})
	}

	if d.Plans == nil {
		errs = append(errs, ValidationError{Path: "$.plans", Message: "required (must be an object/map)"})
	}
	if d.Stagings == nil {
		errs = append(errs, ValidationError{Path: "$.stagings", Message: "required (must be an object/map)"})
	}
	if d.Tasks == nil {
		errs = append(errs, ValidationError{Path: "$.tasks", Message: "required (must be an object/map)"})
	}
	if d.Plans == nil || d.Stagings == nil || d.Tasks == nil {
		return errs
	}

	if d.History == nil {
		errs = append(errs, ValidationError{Path: "$.history", Message: "required (use [] if empty)"})
	}

	errs = append(errs, validatePlans(d)...)
	errs = append(errs, validateStagings(d)...)
	errs = append(errs, validateTasks(d)...)
	errs = append(errs, validateContext(d)...)

	return errs
}

func validatePlans(d Document) []ValidationError {
	var errs []ValidationError

	for key, p := range d.Plans {
		path := fmt.Sprintf("$.plans[%q]", key)

		if p.ID == "" {
			errs = append(errs, ValidationError{Path: path + ".id", Message: "required"})
		} else if p.ID != key {
			errs = append(errs, ValidationError{Path: path + ".id", Message: fmt.Sprintf("must match map key %q", key)})
		}
		if p.Title == "" {
			errs = append(errs, ValidationError{Path: path + ".title", Message: "required"})
		}
		if _, ok := ParsePlanStatus(string(p.Status)); !ok {
			errs = append(errs, ValidationError{Path: path + ".status", Message: fmt.Sprintf("invalid status %q", p.Status)})
		}
		if p.CreatedAt.IsZero() {
			errs = append(errs, ValidationError{Path: path + ".createdAt", Message: "required (RFC3339 timestamp)"})
		}

		// Staging references must exist, point back, and carry contiguous
		// zero-based order values.
		seen := map[string]bool{}
		var orders []int
		for i, sid := range p.StagingIDs {
			spath := fmt.Sprintf("%s.stagingIds[%d]", path, i)
			if sid == "" {
				errs = append(errs, ValidationError{Path: spath, Message: "staging id must be non-empty"})
				continue
			}
			if seen[sid] {
				errs = append(errs, ValidationError{Path: spath, Message: fmt.Sprintf("duplicate staging id %q", sid)})
				continue
			}
			seen[sid] = true

			st, ok := d.Stagings[sid]
			if !ok {
				errs = append(errs, ValidationError{Path: spath, Message: fmt.Sprintf("unknown staging id %q", sid)})
				continue
			}
			if st.PlanID != key {
				errs = append(errs, ValidationError{
					Path:    spath,
					Message: fmt.Sprintf("staging %q must have planId %q", sid, key),
				})
			}
			orders = append(orders, st.Order)
		}

		sort.Ints(orders)
		for i, o := range orders {
			if o != i {
				errs = append(errs, ValidationError{
					Path:    path + ".stagingIds",
					Message: fmt.Sprintf("staging order values must be contiguous from 0 (got %v)", orders),
				})
				break
			}
		}
	}

	return errs
}

func validateStagings(d Document) []ValidationError {
	var errs []ValidationError

	for key, st := range d.Stagings {
		path := fmt.Sprintf("$.stagings[%q]", key)

		if st.ID == "" {
			errs = append(errs, ValidationError{Path: path + ".id", Message: "required"})
		} else if st.ID != key {
			errs = append(errs, ValidationError{Path: path + ".id", Message: fmt.Sprintf("must match map key %q", key)})
		}
		if _, ok := ParseStagingStatus(string(st.Status)); !ok {
			errs = append(errs, ValidationError{Path: path + ".status", Message: fmt.Sprintf("invalid status %q", st.Status)})
		}
		if _, ok := ParseExecutionType(string(st.ExecutionType)); !ok {
			errs = append(errs, ValidationError{Path: path + ".executionType", Message: fmt.Sprintf("invalid execution type %q", st.ExecutionType)})
		}
		if st.Order < 0 {
			errs = append(errs, ValidationError{Path: path + ".order", Message: "must be >= 0"})
		}

		plan, ok := d.Plans[st.PlanID]
		if st.PlanID == "" {
			errs = append(errs, ValidationError{Path: path + ".planId", Message: "required"})
		} else if !ok {
			errs = append(errs, ValidationError{Path: path + ".planId", Message: fmt.Sprintf("unknown plan id %q", st.PlanID)})
		} else if !contains(plan.StagingIDs, key) {
			errs = append(errs, ValidationError{
				Path:    path + ".planId",
				Message: fmt.Sprintf("plan %q must include %q in stagingIds", st.PlanID, key),
			})
		}

		seen := map[string]bool{}
		for i, tid := range st.TaskIDs {
			tpath := fmt.Sprintf("%s.taskIds[%d]", path, i)
			if tid == "" {
				errs = append(errs, ValidationError{Path: tpath, Message: "task id must be non-empty"})
				continue
			}
			if seen[tid] {
				errs = append(errs, ValidationError{Path: tpath, Message: fmt.Sprintf("duplicate task id %q", tid)})
				continue
			}
			seen[tid] = true

			task, ok := d.Tasks[tid]
			if !ok {
				errs = append(errs, ValidationError{Path: tpath, Message: fmt.Sprintf("unknown task id %q", tid)})
				continue
			}
			if task.StagingID != key {
				errs = append(errs, ValidationError{
					Path:    tpath,
					Message: fmt.Sprintf("task %q must have stagingId %q", tid, key),
				})
			}
		}

		// Cross-staging refs may only point at other stagings.
		for i, ref := range st.ArtifactRefs {
			rpath := fmt.Sprintf("%s.artifactRefs[%d]", path, i)
			if ref.StagingID == key {
				errs = append(errs, ValidationError{Path: rpath, Message: "artifact ref must point at a different staging"})
			} else if _, ok := d.Stagings[ref.StagingID]; !ok {
				errs = append(errs, ValidationError{Path: rpath, Message: fmt.Sprintf("unknown staging id %q", ref.StagingID)})
			}
		}
	}

	return errs
}

func validateTasks(d Document) []ValidationError {
	var errs []ValidationError

	for key, t := range d.Tasks {
		path := fmt.Sprintf("$.tasks[%q]", key)

		if t.ID == "" {
			errs = append(errs, ValidationError{Path: path + ".id", Message: "required"})
		} else if t.ID != key {
			errs = append(errs, ValidationError{Path: path + ".id", Message: fmt.Sprintf("must match map key %q", key)})
		}
		if t.Title == "" {
			errs = append(errs, ValidationError{Path: path + ".title", Message: "required"})
		}
		if _, ok := ParseTaskStatus(string(t.Status)); !ok {
			errs = append(errs, ValidationError{Path: path + ".status", Message: fmt.Sprintf("invalid status %q", t.Status)})
		}
		if _, ok := ParsePriority(string(t.Priority)); !ok {
			errs = append(errs, ValidationError{Path: path + ".priority", Message: fmt.Sprintf("invalid priority %q", t.Priority)})
		}
		if _, ok := ParseExecutionType(string(t.ExecutionMode)); !ok {
			errs = append(errs, ValidationError{Path: path + ".executionMode", Message: fmt.Sprintf("invalid execution mode %q", t.ExecutionMode)})
		}
		if t.DependsOn == nil {
			errs = append(errs, ValidationError{Path: path + ".dependsOn", Message: "required (use [] if none)"})
		}

		st, stagingOK := d.Stagings[t.StagingID]
		if t.StagingID == "" {
			errs = append(errs, ValidationError{Path: path + ".stagingId", Message: "required"})
		} else if !stagingOK {
			errs = append(errs, ValidationError{Path: path + ".stagingId", Message: fmt.Sprintf("unknown staging id %q", t.StagingID)})
		} else {
			if !contains(st.TaskIDs, key) {
				errs = append(errs, ValidationError{
					Path:    path + ".stagingId",
					Message: fmt.Sprintf("staging %q must include %q in taskIds", t.StagingID, key),
				})
			}
			if t.PlanID != st.PlanID {
				errs = append(errs, ValidationError{
					Path:    path + ".planId",
					Message: fmt.Sprintf("must match owning staging's plan %q", st.PlanID),
				})
			}
		}

		// Deps stay inside the staging and never self-reference.
		seen := map[string]bool{}
		for i, depID := range t.DependsOn {
			dpath := fmt.Sprintf("%s.dependsOn[%d]", path, i)
			if depID == "" {
				errs = append(errs, ValidationError{Path: dpath, Message: "dep id must be non-empty"})
				continue
			}
			if depID == key {
				errs = append(errs, ValidationError{Path: dpath, Message: "task cannot depend on itself"})
				continue
			}
			if seen[depID] {
				errs = append(errs, ValidationError{Path: dpath, Message: fmt.Sprintf("duplicate dep id %q", depID)})
				continue
			}
			seen[depID] = true

			dep, ok := d.Tasks[depID]
			if !ok {
				errs = append(errs, ValidationError{Path: dpath, Message: fmt.Sprintf("unknown dep id %q", depID)})
				continue
			}
			if dep.StagingID != t.StagingID {
				errs = append(errs, ValidationError{
					Path:    dpath,
					Message: fmt.Sprintf("dep %q belongs to staging %q, not %q", depID, dep.StagingID, t.StagingID),
				})
			}
		}
	}

	// Dependency DAG cycle detection, per staging.
	if cycle := DepCycle(d); len(cycle) > 0 {
		errs = append(errs, ValidationError{
			Path:    "$.tasks",
			Message: fmt.Sprintf("dependency cycle detected: %s", JoinCycle(cycle)),
		})
	}

	return errs
}

func validateContext(d Document) []ValidationError {
	var errs []ValidationError

	// The collections must deserialize as present-but-empty, never null;
	// mutating operations write into them without re-checking.
	if d.Context.Decisions == nil {
		errs = append(errs, ValidationError{Path: "$.context.decisions", Message: "required (use [] if empty)"})
	}
	if d.Context.Memories == nil {
		errs = append(errs, ValidationError{Path: "$.context.memories", Message: "required (use {} if empty)"})
	}

	if d.Context.CurrentPlanID != "" {
		if _, ok := d.Plans[d.Context.CurrentPlanID]; !ok {
			errs = append(errs, ValidationError{
				Path:    "$.context.currentPlanId",
				Message: fmt.Sprintf("unknown plan id %q", d.Context.CurrentPlanID),
			})
		}
	}
	if d.Context.CurrentStagingID != "" {
		if _, ok := d.Stagings[d.Context.CurrentStagingID]; !ok {
			errs = append(errs, ValidationError{
				Path:    "$.context.currentStagingId",
				Message: fmt.Sprintf("unknown staging id %q", d.Context.CurrentStagingID),
			})
		}
	}
	for id, mem := range d.Context.Memories {
		path := fmt.Sprintf("$.context.memories[%q]", id)
		if mem.ID != id {
			errs = append(errs, ValidationError{Path: path + ".id", Message: fmt.Sprintf("must match map key %q", id)})
		}
		if mem.Priority < 0 || mem.Priority > 100 {
			errs = append(errs, ValidationError{Path: path + ".priority", Message: fmt.Sprintf("must be 0..100 (got %d)", mem.Priority)})
		}
	}

	return errs
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}
