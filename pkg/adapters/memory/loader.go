package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Loader implements ports.DefinitionLoader over definitions held in memory.
type Loader struct {
	defs map[string]*domain.WorkflowDefinition
	mu   sync.RWMutex
}

// NewLoader creates a loader holding the given definitions, keyed by their ID.
func NewLoader(defs ...*domain.WorkflowDefinition) (*Loader, error) {
	l := &Loader{defs: make(map[string]*domain.WorkflowDefinition)}
	for _, d := range defs {
		if err := l.Put(d); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Put adds or replaces a definition.
func (l *Loader) Put(def *domain.WorkflowDefinition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("definition missing ID")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.defs[def.ID] = clone(def)
	return nil
}

// Get returns a copy of the definition.
func (l *Loader) Get(ctx context.Context, id string) (*domain.WorkflowDefinition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	def, ok := l.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
	}
	return clone(def), nil
}

// List returns all available definition IDs.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.defs))
	for k := range l.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}

func clone(def *domain.WorkflowDefinition) *domain.WorkflowDefinition {
	cp := *def
	cp.Nodes = slices.Clone(def.Nodes)
	cp.Edges = slices.Clone(def.Edges)
	return &cp
}
