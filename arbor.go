package arbor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/internal/validator"
	loamAdapter "github.com/aretw0/arbor/pkg/adapters/loam"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/pricing"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/runner"
)

// Engine is the high-level entry point for the Arbor library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime     *runtime.Engine
	loader      ports.DefinitionLoader
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	runtimeOpts []runtime.EngineOption
}

var _ ports.Executor = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a DefinitionLoader, bypassing the default Loam catalog.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithModelClient sets the generative model used by LLMCall nodes.
func WithModelClient(c ports.ModelClient) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithModelClient(c))
	}
}

// WithRetriever sets the document index searched by RAGQuery nodes.
func WithRetriever(r ports.Retriever) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRetriever(r))
	}
}

// WithSearchProvider sets the web search used by WebSearch nodes.
func WithSearchProvider(s ports.SearchProvider) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithSearchProvider(s))
	}
}

// WithAuditStore persists every run and node outcome.
func WithAuditStore(s ports.AuditStore) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithAuditStore(s))
	}
}

// WithPricing replaces the default model price table.
func WithPricing(t *pricing.Table) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithPricing(t))
	}
}

// WithTransforms registers custom DataTransform operations.
func WithTransforms(r *registry.Registry) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTransforms(r))
	}
}

// WithTimeout sets the per-run time budget.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTimeout(d))
	}
}

// New initializes a new Arbor Engine.
// When repoPath is set and no loader is injected, workflows are read from a
// Loam repository at that path. With neither, only inline definitions can run.
func New(repoPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil && repoPath != "" {
		catalog, err := loamAdapter.Open(repoPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open workflow repository: %w", err)
		}
		eng.loader = catalog
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(runtimeOpts...)

	return eng, nil
}

// Execute runs def against input. It never returns nil; failures are carried
// by the result's Status and ErrorMessage.
func (e *Engine) Execute(ctx context.Context, def *domain.WorkflowDefinition, input string, identity domain.RunIdentity) *domain.WorkflowExecutionResult {
	return e.runtime.Execute(ctx, def, input, identity)
}

// Run loads the stored workflow id and executes it for userID. The error is
// only set when the workflow cannot be loaded.
func (e *Engine) Run(ctx context.Context, id, input, userID string) (*domain.WorkflowExecutionResult, error) {
	if e.loader == nil {
		return nil, fmt.Errorf("no workflow loader configured")
	}
	def, err := e.loader.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	identity := domain.RunIdentity{WorkflowID: def.ID, UserID: userID}
	return e.Execute(ctx, def, input, identity), nil
}

// Timeout returns the per-run time budget in effect.
func (e *Engine) Timeout() time.Duration {
	return e.runtime.Timeout()
}

// Loader returns the underlying DefinitionLoader, or nil.
func (e *Engine) Loader() ports.DefinitionLoader {
	return e.loader
}

// ParseDefinition decodes a JSON or YAML workflow document.
func ParseDefinition(data []byte) (*domain.WorkflowDefinition, error) {
	data, err := runner.SanitizeDefinition(data)
	if err != nil {
		return nil, err
	}
	return compiler.NewParser().Parse(data)
}

// Validate reports every structural problem in def; none means it can run.
func Validate(def *domain.WorkflowDefinition) []string {
	return validator.Validate(def)
}
