package runtime

import (
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// inputSeparator joins the outputs of several upstream nodes.
const inputSeparator = "\n\n"

// ResolveInputs gathers the input of nodeID from its completed predecessors.
//
// Contributions arrive in edge order. An edge carrying a SourceHandle only
// contributes when it matches the branch its Conditional source took; failed,
// skipped, unfinished or empty outputs contribute nothing.
func ResolveInputs(nodeID string, edges []domain.Edge, run *RunContext) string {
	var parts []string
	for _, e := range edges {
		if e.Target != nodeID {
			continue
		}
		if e.SourceHandle != "" && run.ActiveHandles[e.Source] != e.SourceHandle {
			continue
		}
		res, ok := run.NodeResults[e.Source]
		if !ok || res.Status != domain.NodeStatusCompleted || res.Output == "" {
			continue
		}
		parts = append(parts, res.Output)
	}
	return strings.Join(parts, inputSeparator)
}
