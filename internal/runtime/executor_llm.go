package runtime

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

func (e *Engine) executeLLMCall(ctx context.Context, cfg domain.LLMCallConfig, input string) domain.NodeExecutionResult {
	if e.model == nil {
		return failed("no model client configured")
	}
	cfg = cfg.WithDefaults()

	resp, err := e.model.Invoke(ctx, ports.ModelRequest{
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		UserPrompt:   Interpolate(cfg.UserPromptTemplate, input),
		MaxTokens:    cfg.MaxTokens,
		Temperature:  *cfg.Temperature,
	})
	if err != nil {
		return failed(err.Error())
	}

	res := completed(resp.Text)
	res.TokensUsed = resp.InputTokens + resp.OutputTokens
	res.Cost = e.pricing.Cost(cfg.Model, resp.InputTokens, resp.OutputTokens)
	res.Metadata = map[string]any{
		"model":        cfg.Model,
		"inputTokens":  resp.InputTokens,
		"outputTokens": resp.OutputTokens,
	}
	return res
}
