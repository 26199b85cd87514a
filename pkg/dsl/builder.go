package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/internal/validator"
	"github.com/aretw0/arbor/pkg/domain"
)

// Builder manages the workflow construction.
type Builder struct {
	id    string
	name  string
	order []string
	nodes map[string]*NodeBuilder
	edges []domain.Edge
}

// New creates a new workflow builder.
func New(id string) *Builder {
	return &Builder{
		id:    id,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Name sets the human-readable workflow name.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Add creates a new node in the workflow. Nodes keep the order they were added in.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Connect adds an edge between two nodes, with an optional source handle.
func (b *Builder) Connect(source, target, handle string) *Builder {
	b.edges = append(b.edges, domain.Edge{
		ID:           fmt.Sprintf("e%d", len(b.edges)+1),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
	})
	return b
}

// Definition returns the workflow as built, without validating it.
func (b *Builder) Definition() *domain.WorkflowDefinition {
	def := &domain.WorkflowDefinition{
		ID:    b.id,
		Name:  b.name,
		Nodes: make([]domain.Node, 0, len(b.order)),
		Edges: append([]domain.Edge(nil), b.edges...),
	}
	for _, id := range b.order {
		def.Nodes = append(def.Nodes, b.nodes[id].node)
	}
	return def
}

// Build returns the workflow or a *domain.ValidationError listing every
// structural problem.
func (b *Builder) Build() (*domain.WorkflowDefinition, error) {
	def := b.Definition()
	if problems := validator.Validate(def); len(problems) > 0 {
		return nil, &domain.ValidationError{Problems: problems}
	}
	return def, nil
}
