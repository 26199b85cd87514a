package runtime

import (
	"time"

	"github.com/aretw0/arbor/internal/dag"
	"github.com/aretw0/arbor/pkg/domain"
)

// RunContext is the state of one execution call. It is created fresh per run
// and never shared between runs.
type RunContext struct {
	ExecutionID string
	Identity    domain.RunIdentity
	Input       string
	StartTime   time.Time
	// Order is the topological schedule of the run.
	Order []string

	NodeResults map[string]domain.NodeExecutionResult
	// ActiveHandles holds the branch taken by each completed Conditional.
	ActiveHandles map[string]string
	Skipped       dag.Set

	TotalTokens int
	TotalCost   float64
}

// NewRunContext creates an empty run context.
func NewRunContext(input string, identity domain.RunIdentity, start time.Time) *RunContext {
	return &RunContext{
		Identity:      identity,
		Input:         input,
		StartTime:     start,
		NodeResults:   make(map[string]domain.NodeExecutionResult),
		ActiveHandles: make(map[string]string),
		Skipped:       make(dag.Set),
	}
}

// Record stores a node result and adds its usage to the running totals.
// A Conditional's branch becomes its active handle.
func (r *RunContext) Record(node domain.Node, res domain.NodeExecutionResult) {
	r.NodeResults[node.ID] = res
	r.TotalTokens += res.TokensUsed
	r.TotalCost += res.Cost
	if node.Type == domain.NodeTypeConditional && res.Status == domain.NodeStatusCompleted && res.Branch != "" {
		r.ActiveHandles[node.ID] = res.Branch
	}
}

// Skip marks nodes as pruned. Skipped nodes are never executed.
func (r *RunContext) Skip(ids dag.Set) {
	for id := range ids {
		r.Skipped[id] = struct{}{}
	}
}

// IsSkipped reports whether id was pruned.
func (r *RunContext) IsSkipped(id string) bool {
	return r.Skipped.Has(id)
}
