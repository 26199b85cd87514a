package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// executeNode dispatches a node to the executor of its type. Executors report
// failure through the result, never through an error or a panic.
func (e *Engine) executeNode(ctx context.Context, node domain.Node, input string, run *RunContext) (res domain.NodeExecutionResult) {
	started := e.now()
	defer func() {
		if r := recover(); r != nil {
			res = failed(fmt.Sprintf("executor panic: %v", r))
		}
		res.LatencyMs = e.now().Sub(started).Milliseconds()
	}()

	switch node.Type {
	case domain.NodeTypeInput:
		return completed(run.Input)
	case domain.NodeTypeLLMCall:
		cfg, _ := node.Config.(domain.LLMCallConfig)
		return e.executeLLMCall(ctx, cfg, input)
	case domain.NodeTypeRAGQuery:
		cfg, _ := node.Config.(domain.RAGQueryConfig)
		return e.executeRAGQuery(ctx, cfg, input, run.Identity.UserID)
	case domain.NodeTypeWebSearch:
		cfg, _ := node.Config.(domain.WebSearchConfig)
		return e.executeWebSearch(ctx, cfg, input)
	case domain.NodeTypeDataTransform:
		cfg, _ := node.Config.(domain.DataTransformConfig)
		if fn, ok := e.customTransform(cfg.TransformType); ok {
			return executeCustomTransform(ctx, fn, cfg, input)
		}
		return executeDataTransform(cfg, input)
	case domain.NodeTypeConditional:
		cfg, _ := node.Config.(domain.ConditionalConfig)
		return executeConditional(cfg, input)
	case domain.NodeTypeOutput:
		cfg, _ := node.Config.(domain.OutputConfig)
		return executeOutput(cfg, input)
	}
	return failed(fmt.Sprintf("unsupported node type %q", node.Type))
}

func completed(output string) domain.NodeExecutionResult {
	return domain.NodeExecutionResult{Output: output, Status: domain.NodeStatusCompleted}
}

func failed(msg string) domain.NodeExecutionResult {
	return domain.NodeExecutionResult{Status: domain.NodeStatusFailed, ErrorMessage: msg}
}

func executeOutput(cfg domain.OutputConfig, input string) domain.NodeExecutionResult {
	if cfg.FormatTemplate == "" {
		return completed(input)
	}
	return completed(Interpolate(cfg.FormatTemplate, input))
}
