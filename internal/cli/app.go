// Package cli assembles the arbor binaries from configuration: the audit
// store, the workflow loader, the external clients and the observers.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/adapters/anthropic"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/tavily"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
)

// Options are the per-invocation choices that do not live in Config.
type Options struct {
	// WorkflowDir holds stored workflows. Empty disables the loader.
	WorkflowDir string
	// Loam reads WorkflowDir as a Loam repository instead of plain files.
	Loam  bool
	Debug bool
}

// App is a fully wired engine with the collaborators hosts expose.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Engine   *arbor.Engine
	Store    ports.AuditStore
	Loader   ports.DefinitionLoader
	Tracker  *observability.Tracker
	Registry *prometheus.Registry

	closers []func() error
}

// NewApp opens every configured collaborator. Close releases them.
func NewApp(ctx context.Context, cfg config.Config, opts Options, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Tracker:  observability.NewTracker(0),
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(app.Registry)

	store, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStore)
	if app.Store, err = protectStore(store, cfg.Privacy); err != nil {
		_ = app.Close()
		return nil, err
	}

	if opts.WorkflowDir != "" {
		loader, err := openLoader(opts.WorkflowDir, opts.Loam)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Loader = loader
	}

	retriever := memory.NewRetriever()
	if cfg.Retrieval.Corpus != "" {
		n, err := indexCorpus(retriever, cfg.Retrieval.Corpus)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		logger.Info("retrieval corpus indexed", "dir", cfg.Retrieval.Corpus, "documents", n)
	}

	hooks := []domain.LifecycleHooks{app.Tracker.Hooks(), metrics.Hooks()}
	if opts.Debug {
		hooks = append(hooks, debugHooks(logger))
	}

	engineOpts := []arbor.Option{
		arbor.WithLogger(logger),
		arbor.WithLifecycleHooks(domain.ChainHooks(hooks...)),
		arbor.WithAuditStore(app.Store),
		arbor.WithTimeout(cfg.Timeout),
		arbor.WithModelClient(newModelClient(cfg.Anthropic)),
		arbor.WithSearchProvider(newSearchProvider(cfg.Search)),
		arbor.WithRetriever(retriever),
	}
	if app.Loader != nil {
		engineOpts = append(engineOpts, arbor.WithLoader(app.Loader))
	}

	engine, err := arbor.New("", engineOpts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = engine
	return app, nil
}

// Close releases the audit store and anything else NewApp opened.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// The clients are always wired; a missing key surfaces as a node failure
// only when a workflow actually calls the provider.
func newModelClient(cfg config.AnthropicConfig) ports.ModelClient {
	var opts []anthropic.Option
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Version != "" {
		opts = append(opts, anthropic.WithVersion(cfg.Version))
	}
	return anthropic.New(cfg.APIKey, opts...)
}

func newSearchProvider(cfg config.SearchConfig) ports.SearchProvider {
	var opts []tavily.Option
	if cfg.BaseURL != "" {
		opts = append(opts, tavily.WithBaseURL(cfg.BaseURL))
	}
	return tavily.New(cfg.APIKey, opts...)
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.Debug("Run Start", "execution_id", e.ExecutionID, "workflow_id", e.WorkflowID, "nodes", e.NodeCount)
		},
		OnNodeStart: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Enter Node", "node_id", e.NodeID, "type", e.NodeType)
		},
		OnNodeFinish: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Leave Node", "node_id", e.NodeID, "status", e.Status)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			if e.Result != nil {
				logger.Debug("Run Finish", "execution_id", e.ExecutionID, "status", e.Result.Status, "duration_ms", e.Result.DurationMs)
			}
		},
	}
}
