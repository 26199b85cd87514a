package observability

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

// DefaultRetention is how many finished runs a Tracker remembers.
const DefaultRetention = 256

// NodeProgress is the latest known state of one node.
type NodeProgress struct {
	NodeID    string            `json:"nodeId"`
	NodeType  domain.NodeType   `json:"nodeType"`
	Label     string            `json:"label,omitempty"`
	Status    domain.NodeStatus `json:"status"`
	LatencyMs int64             `json:"latencyMs,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Progress is a snapshot of a run. Nodes are listed in the order they
// were first seen.
type Progress struct {
	ExecutionID string           `json:"executionId"`
	WorkflowID  string           `json:"workflowId,omitempty"`
	Status      domain.RunStatus `json:"status"`
	NodeCount   int              `json:"nodeCount"`
	Nodes       []NodeProgress   `json:"nodes"`
	StartedAt   time.Time        `json:"startedAt"`
	FinishedAt  time.Time        `json:"finishedAt,omitzero"`
}

// Completed counts nodes that reached a terminal status.
func (p Progress) Completed() int {
	n := 0
	for _, node := range p.Nodes {
		if node.Status != domain.NodeStatusRunning {
			n++
		}
	}
	return n
}

// Tracker records run progress from lifecycle events. Runs without an
// execution ID (no audit store) are not tracked.
type Tracker struct {
	mu        sync.RWMutex
	runs      map[string]*Progress
	finished  []string
	retention int
}

// NewTracker creates a tracker keeping up to retention finished runs.
// Non-positive values use DefaultRetention.
func NewTracker(retention int) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Tracker{
		runs:      make(map[string]*Progress),
		retention: retention,
	}
}

// Get returns a copy of the run's progress.
func (t *Tracker) Get(executionID string) (Progress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.runs[executionID]
	if !ok {
		return Progress{}, false
	}
	cp := *p
	cp.Nodes = slices.Clone(p.Nodes)
	return cp, true
}

// Hooks returns lifecycle hooks that feed the tracker.
func (t *Tracker) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart:   t.runStart,
		OnRunFinish:  t.runFinish,
		OnNodeStart:  t.node,
		OnNodeFinish: t.node,
	}
}

func (t *Tracker) runStart(_ context.Context, e *domain.RunEvent) {
	if e.ExecutionID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[e.ExecutionID] = &Progress{
		ExecutionID: e.ExecutionID,
		WorkflowID:  e.WorkflowID,
		Status:      domain.RunStatusRunning,
		NodeCount:   e.NodeCount,
		Nodes:       []NodeProgress{},
		StartedAt:   e.Timestamp,
	}
}

func (t *Tracker) runFinish(_ context.Context, e *domain.RunEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.runs[e.ExecutionID]
	if !ok {
		return
	}
	p.Status = domain.RunStatusFailed
	if e.Result != nil {
		p.Status = e.Result.Status
	}
	p.FinishedAt = e.Timestamp

	t.finished = append(t.finished, e.ExecutionID)
	for len(t.finished) > t.retention {
		delete(t.runs, t.finished[0])
		t.finished = t.finished[1:]
	}
}

func (t *Tracker) node(_ context.Context, e *domain.NodeEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.runs[e.ExecutionID]
	if !ok {
		return
	}
	np := NodeProgress{
		NodeID:    e.NodeID,
		NodeType:  e.NodeType,
		Label:     e.Label,
		Status:    e.Status,
		UpdatedAt: e.Timestamp,
	}
	if e.Result != nil {
		np.LatencyMs = e.Result.LatencyMs
	}
	for i := range p.Nodes {
		if p.Nodes[i].NodeID == e.NodeID {
			p.Nodes[i] = np
			return
		}
	}
	p.Nodes = append(p.Nodes, np)
}
