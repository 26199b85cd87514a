package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// Executor runs a workflow definition to completion.
// This is the interface used by surfaces (CLI runner, HTTP, MCP) so they can
// be tested without a real engine.
type Executor interface {
	// Execute never returns an error; failures are reported in the result.
	Execute(ctx context.Context, def *domain.WorkflowDefinition, input string, identity domain.RunIdentity) *domain.WorkflowExecutionResult
}
