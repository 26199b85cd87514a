package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// ErrRunFailed is returned by Run when the workflow did not complete.
// The result is still returned and has already been handed to the handler.
var ErrRunFailed = errors.New("workflow run failed")

// Runner executes one workflow per call.
type Runner struct {
	Handler   OutputHandler
	Logger    *slog.Logger
	Identity  domain.RunIdentity
	TrimInput bool

	executor ports.Executor
}

// NewRunner creates a runner. A text handler on stdout is used when none is set.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{TrimInput: true}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil)
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Run reads the input from in, executes def and reports the result.
func (r *Runner) Run(ctx context.Context, def *domain.WorkflowDefinition, in io.Reader) (*domain.WorkflowExecutionResult, error) {
	if r.executor == nil {
		return nil, fmt.Errorf("runner has no executor")
	}

	input, err := ReadInput(in)
	if err != nil {
		return nil, err
	}
	if r.TrimInput {
		input = strings.TrimSpace(input)
	}
	return r.RunInput(ctx, def, input)
}

// RunInput executes def with an already read input.
func (r *Runner) RunInput(ctx context.Context, def *domain.WorkflowDefinition, input string) (*domain.WorkflowExecutionResult, error) {
	if r.executor == nil {
		return nil, fmt.Errorf("runner has no executor")
	}
	clean, err := SanitizeInput(input)
	if err != nil {
		return nil, err
	}

	identity := r.Identity
	identity.WorkflowID = def.ID

	r.Logger.Debug("run starting", "workflow_id", def.ID, "input_bytes", len(clean))
	res := r.executor.Execute(ctx, def, clean, identity)

	if err := r.Handler.Result(ctx, res); err != nil {
		return res, fmt.Errorf("failed to write result: %w", err)
	}
	if res.Status != domain.RunStatusCompleted {
		return res, fmt.Errorf("%w: %s", ErrRunFailed, res.ErrorMessage)
	}
	return res, nil
}

// ReadInput reads at most MaxInputSize()+1 bytes from in, so oversized input
// is rejected by SanitizeInput without buffering all of it. A nil reader
// yields an empty input.
func ReadInput(in io.Reader) (string, error) {
	if in == nil {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(in, int64(MaxInputSize())+1))
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
