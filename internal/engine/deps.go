package engine

import (
	"github.com/planwright/planwright/internal/schema"
)

// checkTaskDeps validates a proposed dependency edge set for a task before it
// is committed. It rejects self-dependencies, unknown tasks, tasks outside
// the staging (cross-staging coupling uses read-only artifact refs, never
// depends_on), and any edge set that would close a cycle. The store is never
// mutated here; the cycle walk runs over an adjacency view with the proposed
// edges substituted in.
func (m *Manager) checkTaskDeps(taskID, stagingID string, proposed []string) error {
	doc := m.doc

	for _, depID := range proposed {
		if depID == "" {
			return InputError{Field: "dependsOn", Message: "dep id must be non-empty"}
		}
		if depID == taskID {
			return InputError{Field: "dependsOn", Message: "task cannot depend on itself"}
		}
		dep, ok := doc.Tasks[depID]
		if !ok {
			return NotFoundError{Kind: "task", ID: depID}
		}
		if dep.StagingID != stagingID {
			return MismatchError{
				Kind:       "task",
				ID:         depID,
				Claimed:    stagingID,
				Actual:     dep.StagingID,
				ParentKind: "staging",
			}
		}
	}

	adjacency := map[string][]string{}
	for id, t := range doc.Tasks {
		if t.StagingID != stagingID {
			continue
		}
		adjacency[id] = t.DependsOn
	}
	adjacency[taskID] = normalizeDeps(proposed)

	if cycle := schema.CycleInGraph(adjacency); len(cycle) > 0 {
		return CircularDependencyError{Cycle: cycle}
	}
	return nil
}
