// Package runtime executes workflow definitions: it schedules nodes, resolves
// their inputs, dispatches them to executors and records the run.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/arbor/internal/dag"
	"github.com/aretw0/arbor/internal/validator"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/pricing"
	"github.com/aretw0/arbor/pkg/registry"
)

// DefaultTimeout bounds a run when no timeout is configured.
const DefaultTimeout = 5 * time.Minute

// outputSeparator joins the outputs of several Output nodes.
const outputSeparator = "\n\n"

// cancelledMessage is the run error when the caller's context ends mid-run.
const cancelledMessage = "Workflow execution cancelled"

// Engine runs workflow definitions. It holds no per-run state and is safe for
// concurrent use once constructed.
type Engine struct {
	model      ports.ModelClient
	retriever  ports.Retriever
	search     ports.SearchProvider
	transforms *registry.Registry
	audit      ports.AuditStore
	pricing    *pricing.Table
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	timeout    time.Duration
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithModelClient sets the collaborator used by LLMCall nodes.
func WithModelClient(c ports.ModelClient) EngineOption {
	return func(e *Engine) {
		e.model = c
	}
}

// WithRetriever sets the collaborator used by RAGQuery nodes.
func WithRetriever(r ports.Retriever) EngineOption {
	return func(e *Engine) {
		e.retriever = r
	}
}

// WithSearchProvider sets the collaborator used by WebSearch nodes.
func WithSearchProvider(s ports.SearchProvider) EngineOption {
	return func(e *Engine) {
		e.search = s
	}
}

// WithTransforms makes the custom transforms in r available to DataTransform
// nodes. Built-in transform types always take precedence.
func WithTransforms(r *registry.Registry) EngineOption {
	return func(e *Engine) {
		e.transforms = r
	}
}

// WithAuditStore enables execution records.
func WithAuditStore(s ports.AuditStore) EngineOption {
	return func(e *Engine) {
		e.audit = s
	}
}

// WithPricing overrides the model price list.
func WithPricing(t *pricing.Table) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.pricing = t
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTimeout sets the wall-clock budget of a run. Non-positive values keep the default.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine. Collaborators left unset make the matching
// node types fail at run time rather than at construction.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		pricing: pricing.Default(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeout returns the configured run budget.
func (e *Engine) Timeout() time.Duration {
	return e.timeout
}

// Execute runs def against input and always returns a result; failures are
// reported through its Status and ErrorMessage.
//
// Nodes run one at a time in topological order. The first failed node ends
// the run, and the time budget is checked before each node is dispatched.
func (e *Engine) Execute(ctx context.Context, def *domain.WorkflowDefinition, input string, identity domain.RunIdentity) *domain.WorkflowExecutionResult {
	start := e.now()
	logger := e.logger.With("workflow_id", identity.WorkflowID)

	if problems := validator.Validate(def); len(problems) > 0 {
		logger.Warn("workflow rejected", "problems", len(problems))
		return e.preflightFailure(start, problems)
	}

	order, err := dag.TopologicalSort(def.Nodes, def.Edges)
	if err != nil {
		return e.preflightFailure(start, []string{err.Error()})
	}

	run := NewRunContext(input, identity, start)
	run.Order = order

	if e.audit != nil {
		id, err := e.audit.CreateExecution(ctx, domain.ExecutionRecord{
			WorkflowID: identity.WorkflowID,
			UserID:     identity.UserID,
			Input:      input,
			Status:     domain.RunStatusRunning,
			StartedAt:  start,
		})
		if err != nil {
			logger.Error("failed to create execution record", "error", err)
			return &domain.WorkflowExecutionResult{
				NodeResults:  map[string]domain.NodeExecutionResult{},
				Status:       domain.RunStatusFailed,
				ErrorMessage: fmt.Sprintf("failed to create execution record: %v", err),
				DurationMs:   e.now().Sub(start).Milliseconds(),
			}
		}
		run.ExecutionID = id
		logger = logger.With("execution_id", id)
	}

	e.emitRun(ctx, e.hooks.OnRunStart, domain.EventRunStart, run, len(def.Nodes), nil)

	index := make(map[string]domain.Node, len(def.Nodes))
	for _, n := range def.Nodes {
		index[n.ID] = n
	}

	for _, id := range order {
		node := index[id]

		if run.IsSkipped(id) {
			res := domain.NodeExecutionResult{Status: domain.NodeStatusSkipped}
			run.Record(node, res)
			e.persistNode(ctx, logger, run, node, "", res)
			e.emitNode(ctx, e.hooks.OnNodeFinish, domain.EventNodeFinish, run, node, &res)
			logger.Debug("node skipped", "node_id", id)
			continue
		}

		if err := ctx.Err(); err != nil {
			logger.Warn("run cancelled", "node_id", id, "error", err)
			return e.finish(ctx, logger, run, def, domain.RunStatusFailed, cancelledMessage)
		}
		if elapsed := e.now().Sub(start); elapsed > e.timeout {
			logger.Warn("run timed out", "node_id", id, "elapsed", elapsed)
			return e.finish(ctx, logger, run, def, domain.RunStatusFailed, domain.TimeoutMessage)
		}

		nodeInput := ResolveInputs(id, def.Edges, run)
		e.emitNode(ctx, e.hooks.OnNodeStart, domain.EventNodeStart, run, node, nil)

		res := e.executeNode(ctx, node, nodeInput, run)
		run.Record(node, res)
		e.persistNode(ctx, logger, run, node, nodeInput, res)
		e.emitNode(ctx, e.hooks.OnNodeFinish, domain.EventNodeFinish, run, node, &res)

		if res.Status == domain.NodeStatusFailed {
			logger.Warn("node failed", "node_id", id, "node_type", node.Type, "error", res.ErrorMessage)
			msg := fmt.Sprintf("Node %q failed: %s", node.DisplayName(), res.ErrorMessage)
			return e.finish(ctx, logger, run, def, domain.RunStatusFailed, msg)
		}
		logger.Debug("node completed", "node_id", id, "node_type", node.Type, "latency_ms", res.LatencyMs)

		if node.Type == domain.NodeTypeConditional {
			pruned := dag.PruneSet(id, def.Edges, res.Branch)
			run.Skip(pruned)
			logger.Debug("branch selected", "node_id", id, "branch", res.Branch, "pruned", len(pruned))
		}
	}

	return e.finish(ctx, logger, run, def, domain.RunStatusCompleted, "")
}

func (e *Engine) preflightFailure(start time.Time, problems []string) *domain.WorkflowExecutionResult {
	return &domain.WorkflowExecutionResult{
		NodeResults:  map[string]domain.NodeExecutionResult{},
		Status:       domain.RunStatusFailed,
		ErrorMessage: "Validation failed: " + strings.Join(problems, "; "),
		DurationMs:   e.now().Sub(start).Milliseconds(),
	}
}

// finish builds the run result, closes the audit record and fires OnRunFinish.
func (e *Engine) finish(ctx context.Context, logger *slog.Logger, run *RunContext, def *domain.WorkflowDefinition, status domain.RunStatus, errMsg string) *domain.WorkflowExecutionResult {
	end := e.now()
	result := &domain.WorkflowExecutionResult{
		ExecutionID:  run.ExecutionID,
		NodeResults:  run.NodeResults,
		TotalTokens:  run.TotalTokens,
		TotalCost:    run.TotalCost,
		Status:       status,
		ErrorMessage: errMsg,
		DurationMs:   end.Sub(run.StartTime).Milliseconds(),
	}
	if status == domain.RunStatusCompleted {
		result.Output = collectOutputs(def, run)
	}

	if e.audit != nil && run.ExecutionID != "" {
		err := e.audit.UpdateExecution(context.WithoutCancel(ctx), run.ExecutionID, domain.ExecutionOutcome{
			Status:       status,
			Output:       result.Output,
			ErrorMessage: errMsg,
			TotalTokens:  result.TotalTokens,
			TotalCost:    result.TotalCost,
			DurationMs:   result.DurationMs,
			CompletedAt:  end,
		})
		if err != nil {
			logger.Warn("failed to update execution record", "error", err)
		}
	}

	e.emitRun(ctx, e.hooks.OnRunFinish, domain.EventRunFinish, run, len(def.Nodes), result)
	logger.Info("run finished",
		"status", status,
		"duration_ms", result.DurationMs,
		"tokens", result.TotalTokens,
		"cost", result.TotalCost,
	)
	return result
}

// collectOutputs joins the outputs of completed Output nodes in execution order.
func collectOutputs(def *domain.WorkflowDefinition, run *RunContext) string {
	outputs := make(map[string]struct{})
	for _, n := range def.NodesOfType(domain.NodeTypeOutput) {
		outputs[n.ID] = struct{}{}
	}

	var parts []string
	for _, id := range run.Order {
		if _, ok := outputs[id]; !ok {
			continue
		}
		if res, ok := run.NodeResults[id]; ok && res.Status == domain.NodeStatusCompleted {
			parts = append(parts, res.Output)
		}
	}
	return strings.Join(parts, outputSeparator)
}

// persistNode writes the node's audit record. Failures are logged only.
func (e *Engine) persistNode(ctx context.Context, logger *slog.Logger, run *RunContext, node domain.Node, input string, res domain.NodeExecutionResult) {
	if e.audit == nil || run.ExecutionID == "" {
		return
	}
	err := e.audit.InsertNodeExecution(context.WithoutCancel(ctx), domain.NodeExecutionRecord{
		ExecutionID:  run.ExecutionID,
		NodeID:       node.ID,
		NodeType:     node.Type,
		Status:       res.Status,
		Input:        input,
		Output:       res.Output,
		TokensUsed:   res.TokensUsed,
		Cost:         res.Cost,
		LatencyMs:    res.LatencyMs,
		ErrorMessage: res.ErrorMessage,
		Metadata:     res.Metadata,
		CreatedAt:    e.now(),
	})
	if err != nil {
		logger.Warn("failed to insert node execution record", "node_id", node.ID, "error", err)
	}
}

func (e *Engine) emitRun(ctx context.Context, hook func(context.Context, *domain.RunEvent), typ domain.EventType, run *RunContext, nodeCount int, result *domain.WorkflowExecutionResult) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{
			Timestamp:   e.now(),
			Type:        typ,
			ExecutionID: run.ExecutionID,
			WorkflowID:  run.Identity.WorkflowID,
		},
		NodeCount: nodeCount,
		Result:    result,
	})
}

func (e *Engine) emitNode(ctx context.Context, hook func(context.Context, *domain.NodeEvent), typ domain.EventType, run *RunContext, node domain.Node, res *domain.NodeExecutionResult) {
	if hook == nil {
		return
	}
	status := domain.NodeStatusRunning
	if res != nil {
		status = res.Status
	}
	hook(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{
			Timestamp:   e.now(),
			Type:        typ,
			ExecutionID: run.ExecutionID,
			WorkflowID:  run.Identity.WorkflowID,
		},
		NodeID:   node.ID,
		NodeType: node.Type,
		Label:    node.DisplayName(),
		Status:   status,
		Result:   res,
	})
}
