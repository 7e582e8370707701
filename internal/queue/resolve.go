package queue

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/gammazero/toposort"
)

// Resolution is the result of a graph-wide topological resolution.
// When a cycle is present, ExecutionOrder holds the partial linearization of
// the acyclic portion and HasCircularDependency is true.
type Resolution struct {
	ExecutionOrder        []string
	HasCircularDependency bool
}

// ResolveAll linearizes the entire current graph, dependencies before
// dependents, independent of task state and assignment. Ties are broken by
// creation tick then id, so the order is fully deterministic.
//
// The public Add API cannot construct a cycle, so a cycle here means the
// graph was mutated out of band (a corrupted restore, direct edge edits).
// That is reported, not repaired: arbitrarily breaking a cycle would silently
// discard planner intent.
func (q *Queue) ResolveAll() Resolution {
	q.mu.RLock()
	defer q.mu.RUnlock()

	// Kahn's algorithm with an ordered frontier. The reverse adjacency is
	// rebuilt from the forward edges instead of trusting the mirrored
	// Dependents sets, since this is the defense against graphs corrupted
	// outside the public API where the mirror may be stale.
	indegree := make(map[string]int, len(q.tasks))
	dependents := make(map[string][]string, len(q.tasks))
	for id, task := range q.tasks {
		n := 0
		for _, depID := range task.Dependencies {
			if _, exists := q.tasks[depID]; exists {
				n++
				dependents[depID] = append(dependents[depID], id)
			}
		}
		indegree[id] = n
	}

	frontier := redblacktree.NewWith(resolveOrder)
	for id, n := range indegree {
		if n == 0 {
			task := q.tasks[id]
			frontier.Put(resolveKey{task.CreatedAt, id}, id)
		}
	}

	order := make([]string, 0, len(q.tasks))
	for frontier.Size() > 0 {
		node := frontier.Left()
		frontier.Remove(node.Key)
		id := node.Value.(string)
		order = append(order, id)

		for _, depID := range dependents[id] {
			indegree[depID]--
			if indegree[depID] == 0 {
				frontier.Put(resolveKey{q.tasks[depID].CreatedAt, depID}, depID)
			}
		}
	}

	// Unvisited nodes remaining means at least one cycle.
	return Resolution{
		ExecutionOrder:        order,
		HasCircularDependency: len(order) != len(q.tasks),
	}
}

// Validate is the error-returning structural check used outside the tick path
// (restore, preflight): it rejects dangling dependency references and cycles.
// Unlike ResolveAll it does not promise a deterministic order.
func (q *Queue) Validate() ([]string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for id, task := range q.tasks {
		for _, depID := range task.Dependencies {
			if _, exists := q.tasks[depID]; !exists {
				return nil, fmt.Errorf("task %q depends on non-existent task %q", id, depID)
			}
		}
	}

	var edges []toposort.Edge
	for id, task := range q.tasks {
		if len(task.Dependencies) == 0 {
			// Root tasks get a nil-source edge so the sort still sees them.
			edges = append(edges, toposort.Edge{nil, id})
		} else {
			for _, depID := range task.Dependencies {
				edges = append(edges, toposort.Edge{depID, id})
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("task graph contains cycle: %w", err)
	}

	order := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}

	if len(order) != len(q.tasks) {
		missing := []string{}
		seen := make(map[string]bool, len(order))
		for _, id := range order {
			seen[id] = true
		}
		for id := range q.tasks {
			if !seen[id] {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("topological sort lost %d tasks: %s", len(missing), strings.Join(missing, ", "))
	}

	return order, nil
}

type resolveKey struct {
	createdAt int64
	id        string
}

func resolveOrder(a, b interface{}) int {
	ka, kb := a.(resolveKey), b.(resolveKey)
	switch {
	case ka.createdAt < kb.createdAt:
		return -1
	case ka.createdAt > kb.createdAt:
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}
