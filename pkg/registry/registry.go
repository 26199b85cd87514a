// Package registry lets embedders contribute DataTransform operations beyond
// the built-in ones.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// TransformFunc implements a custom transform. It receives the node input and
// the node's config string, and returns the node output.
type TransformFunc func(ctx context.Context, input, config string) (string, error)

// Registry manages the available transforms.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]TransformFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		transforms: make(map[string]TransformFunc),
	}
}

// Register adds a transform to the registry.
// If a transform with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn TransformFunc) error {
	if name == "" {
		return errors.New("transform name is empty")
	}
	if fn == nil {
		return fmt.Errorf("transform %q has no implementation", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[name] = fn
	return nil
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (TransformFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.transforms[name]
	return fn, ok
}

// Names lists the registered transforms in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.transforms))
	for name := range r.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute looks up a transform by name and runs it.
// Returns an error if the transform is not found.
func (r *Registry) Execute(ctx context.Context, name, input, config string) (string, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("transform not found: %s", name)
	}
	return fn(ctx, input, config)
}
