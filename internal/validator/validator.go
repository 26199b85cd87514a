// Package validator performs the structural checks a definition must pass
// before any node runs.
package validator

import (
	"errors"
	"fmt"

	"github.com/aretw0/arbor/internal/dag"
	"github.com/aretw0/arbor/pkg/domain"
)

// Problem messages shared with callers and tests.
const (
	MsgNoInput  = "workflow must have at least one Input node"
	MsgNoOutput = "workflow must have at least one Output node"
	MsgCycle    = "workflow contains a cycle"
)

// Validate returns every structural problem in def. It never fails; an empty
// result means the definition can be executed.
//
// Each check runs independently, so a definition with several problems gets
// all of them reported at once.
func Validate(def *domain.WorkflowDefinition) []string {
	if def == nil {
		return []string{"workflow definition is empty"}
	}

	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	known := make(map[string]domain.Node, len(def.Nodes))
	for _, n := range def.Nodes {
		if n.ID == "" {
			report("node %q has an empty id", n.DisplayName())
			continue
		}
		if _, dup := known[n.ID]; dup {
			report("duplicate node id %q", n.ID)
			continue
		}
		known[n.ID] = n
		if n.Config != nil && domain.ConfigType(n.Config) != n.Type {
			report("node %q has %s config but type %s", n.DisplayName(), domain.ConfigType(n.Config), n.Type)
		}
	}

	if len(def.NodesOfType(domain.NodeTypeInput)) == 0 {
		report(MsgNoInput)
	}
	if len(def.NodesOfType(domain.NodeTypeOutput)) == 0 {
		report(MsgNoOutput)
	}

	incoming := make(map[string]int)
	outgoing := make(map[string]int)
	for _, e := range def.Edges {
		incoming[e.Target]++
		outgoing[e.Source]++

		src, srcOK := known[e.Source]
		if !srcOK {
			report("edge %q references unknown source node %q", e.ID, e.Source)
		}
		if _, ok := known[e.Target]; !ok {
			report("edge %q references unknown target node %q", e.ID, e.Target)
		}
		if srcOK && src.Type == domain.NodeTypeConditional &&
			e.SourceHandle != domain.HandleTrue && e.SourceHandle != domain.HandleFalse {
			report("edge %q leaves Conditional node %q without a true/false handle", e.ID, src.DisplayName())
		}
	}

	if _, err := dag.TopologicalSort(def.Nodes, def.Edges); errors.Is(err, domain.ErrCycle) {
		report(MsgCycle)
	}

	for _, n := range def.NodesOfType(domain.NodeTypeOutput) {
		if incoming[n.ID] == 0 {
			report("Output node %q has no incoming connections", n.DisplayName())
		}
	}
	for _, n := range def.NodesOfType(domain.NodeTypeConditional) {
		if outgoing[n.ID] == 0 {
			report("Conditional node %q has no outgoing connections", n.DisplayName())
		}
	}

	return problems
}
