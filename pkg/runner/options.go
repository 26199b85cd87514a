package runner

import (
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithExecutor configures the engine that runs workflows.
func WithExecutor(exec ports.Executor) Option {
	return func(r *Runner) {
		r.executor = exec
	}
}

// WithOutputHandler configures how results are presented.
func WithOutputHandler(h OutputHandler) Option {
	return func(r *Runner) {
		r.Handler = h
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithIdentity sets the user the run is attributed to. The workflow ID is
// taken from the definition.
func WithIdentity(userID string) Option {
	return func(r *Runner) {
		r.Identity = domain.RunIdentity{UserID: userID}
	}
}

// WithTrimInput strips surrounding whitespace (e.g. the newline of a piped echo).
func WithTrimInput(trim bool) Option {
	return func(r *Runner) {
		r.TrimInput = trim
	}
}
