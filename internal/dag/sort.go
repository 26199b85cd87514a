// Package dag holds the structural algorithms over workflow definitions:
// topological scheduling and branch reachability.
package dag

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// TopologicalSort orders node IDs so every edge's source precedes its target.
//
// It runs Kahn's algorithm over edges whose endpoints both exist. The ready
// queue is seeded in node order and successors are released in edge order, so
// the result is deterministic for a given definition. If some nodes remain
// unsorted the graph has a cycle and the returned error wraps domain.ErrCycle.
func TopologicalSort(nodes []domain.Node, edges []domain.Edge) ([]string, error) {
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n.ID] = 0
	}

	successors := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if _, ok := inDegree[e.Source]; !ok {
			continue
		}
		if _, ok := inDegree[e.Target]; !ok {
			continue
		}
		successors[e.Source] = append(successors[e.Source], e.Target)
		inDegree[e.Target]++
	}

	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	sorted := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		for _, next := range successors[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(sorted) < len(inDegree) {
		var stuck []string
		for _, n := range nodes {
			if inDegree[n.ID] > 0 {
				stuck = append(stuck, n.ID)
			}
		}
		return nil, fmt.Errorf("%w (unresolved: %s)", domain.ErrCycle, strings.Join(stuck, ", "))
	}

	return sorted, nil
}
