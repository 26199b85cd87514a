package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventRunFinish  EventType = "run_finish"
	EventNodeStart  EventType = "node_start"
	EventNodeFinish EventType = "node_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	ExecutionID string    `json:"execution_id"`
	WorkflowID  string    `json:"workflow_id,omitempty"`
}

// RunEvent marks the start or the end of a run. Result is nil on start.
type RunEvent struct {
	EventBase
	NodeCount int                      `json:"node_count"`
	Result    *WorkflowExecutionResult `json:"result,omitempty"`
}

// NodeEvent marks a node transition. Status is NodeStatusRunning on start;
// on finish it carries the node's terminal status (skipped included).
type NodeEvent struct {
	EventBase
	NodeID   string               `json:"node_id"`
	NodeType NodeType             `json:"node_type"`
	Label    string               `json:"label,omitempty"`
	Status   NodeStatus           `json:"status"`
	Result   *NodeExecutionResult `json:"result,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the run's goroutine and must not block.
type LifecycleHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnRunFinish  func(context.Context, *RunEvent)
	OnNodeStart  func(context.Context, *NodeEvent)
	OnNodeFinish func(context.Context, *NodeEvent)
}

// ChainHooks combines several hook sets; each callback fans out in order.
func ChainHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		out.OnRunStart = chainRun(out.OnRunStart, h.OnRunStart)
		out.OnRunFinish = chainRun(out.OnRunFinish, h.OnRunFinish)
		out.OnNodeStart = chainNode(out.OnNodeStart, h.OnNodeStart)
		out.OnNodeFinish = chainNode(out.OnNodeFinish, h.OnNodeFinish)
	}
	return out
}

func chainRun(a, b func(context.Context, *RunEvent)) func(context.Context, *RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
