package schema

import "sort"

type visitState uint8

const (
	visitNew visitState = iota
	visitVisiting
	visitDone
)

// DepCycle returns a task dependency cycle path if one exists, else nil.
//
// The returned slice includes the starting node again at the end to show
// closure, e.g. ["A", "B", "C", "A"]. Because dependencies never cross staging
// boundaries, the walk naturally stays within one staging's tasks.
func DepCycle(d Document) []string {
	adjacency := make(map[string][]string, len(d.Tasks))
	for id, t := range d.Tasks {
		adjacency[id] = t.DependsOn
	}
	return CycleInGraph(adjacency)
}

// CycleInGraph runs a depth-first walk over an id -> dependency-ids adjacency
// view and returns the first cycle found, closed with the starting node.
// Unknown ids in edge lists are skipped; validation reports them separately.
func CycleInGraph(adjacency map[string][]string) []string {
	state := map[string]visitState{}
	onStack := map[string]int{} // id -> index in stack
	var stack []string
	var cycle []string

	var dfs func(id string)
	dfs = func(id string) {
		if len(cycle) > 0 {
			return
		}

		state[id] = visitVisiting
		onStack[id] = len(stack)
		stack = append(stack, id)

		for _, depID := range adjacency[id] {
			if len(cycle) > 0 {
				return
			}
			if _, ok := adjacency[depID]; !ok {
				continue
			}

			switch state[depID] {
			case visitNew:
				dfs(depID)
			case visitVisiting:
				idx := onStack[depID]
				cycle = append([]string{}, stack[idx:]...)
				cycle = append(cycle, depID)
				return
			case visitDone:
				// nothing
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, id)
		state[id] = visitDone
	}

	// Deterministic start order keeps the reported cycle stable across runs.
	ids := make([]string, 0, len(adjacency))
	for id := range adjacency {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if state[id] == visitNew {
			dfs(id)
			if len(cycle) > 0 {
				return cycle
			}
		}
	}

	return nil
}

// Dependents returns ids of tasks that directly depend on id.
// Output is sorted for stable display.
func Dependents(d Document, id string) []string {
	out := make([]string, 0)
	for otherID, t := range d.Tasks {
		for _, depID := range t.DependsOn {
			if depID == id {
				out = append(out, otherID)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// UnmetDeps returns prerequisite ids whose status is not done.
// The result preserves the order of t.DependsOn.
func UnmetDeps(d Document, t Task) []string {
	if len(t.DependsOn) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.DependsOn))
	for _, depID := range t.DependsOn {
		dep, ok := d.Tasks[depID]
		if !ok {
			// Validation reports unknown deps; treat as unmet here too.
			out = append(out, depID)
			continue
		}
		if dep.Status != TaskDone {
			out = append(out, depID)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// JoinCycle renders a cycle path as "A -> B -> A".
func JoinCycle(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	out := ids[0]
	for i := 1; i < len(ids); i++ {
		out += " -> " + ids[i]
	}
	return out
}
