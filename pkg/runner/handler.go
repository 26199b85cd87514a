package runner

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// OutputHandler defines how a finished run is presented.
// This allows switching between Text (CLI) and JSON (Structured) modes.
type OutputHandler interface {
	Result(ctx context.Context, result *domain.WorkflowExecutionResult) error
}

// ContentRenderer transforms output text before display (e.g. Markdown to ANSI).
type ContentRenderer func(string) (string, error)
