package loam

import "github.com/aretw0/arbor/internal/dto"

// WorkflowMetadata is the frontmatter of a workflow document. The document
// body is free-form description and is not interpreted.
type WorkflowMetadata struct {
	ID    string             `json:"id" yaml:"id" mapstructure:"id"`
	Name  string             `json:"name" yaml:"name" mapstructure:"name"`
	Nodes []dto.NodeDocument `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges []dto.EdgeDocument `json:"edges" yaml:"edges" mapstructure:"edges"`

	// Tags are catalog labels, surfaced by List consumers only.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty" mapstructure:"tags"`
}

func (m WorkflowMetadata) document() dto.WorkflowDocument {
	return dto.WorkflowDocument{
		ID:    m.ID,
		Name:  m.Name,
		Nodes: m.Nodes,
		Edges: m.Edges,
	}
}
