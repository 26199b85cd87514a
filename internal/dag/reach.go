package dag

import "github.com/aretw0/arbor/pkg/domain"

// Set is a set of node IDs.
type Set map[string]struct{}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// DownstreamOf returns every node reachable from nodeID, excluding nodeID itself
// unless a cycle leads back to it.
//
// When handle is non-empty only the edges leaving nodeID with that SourceHandle
// seed the search; every later hop follows all edges regardless of handle.
func DownstreamOf(nodeID string, edges []domain.Edge, handle string) Set {
	adjacency := make(map[string][]string)
	for _, e := range edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}

	visited := make(Set)
	var queue []string
	for _, e := range edges {
		if e.Source != nodeID {
			continue
		}
		if handle != "" && e.SourceHandle != handle {
			continue
		}
		if !visited.Has(e.Target) {
			visited[e.Target] = struct{}{}
			queue = append(queue, e.Target)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[id] {
			if visited.Has(next) {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}

	return visited
}

// PruneSet returns the nodes that become unreachable once the Conditional
// conditionalID has taken the branch named by taken: everything downstream of
// the other handle that is not also downstream of the taken one. Join points
// fed by both branches therefore stay schedulable.
func PruneSet(conditionalID string, edges []domain.Edge, taken string) Set {
	other := domain.HandleFalse
	if taken == domain.HandleFalse {
		other = domain.HandleTrue
	}

	active := DownstreamOf(conditionalID, edges, taken)
	pruned := make(Set)
	for id := range DownstreamOf(conditionalID, edges, other) {
		if !active.Has(id) {
			pruned[id] = struct{}{}
		}
	}
	return pruned
}
