// Package dto holds the authored (wire) shape of workflow definitions, shared
// by the file, Loam, HTTP and MCP surfaces.
package dto

// WorkflowDocument is a workflow as authored in JSON, YAML or frontmatter.
// Node data stays untyped until the compiler decodes it.
type WorkflowDocument struct {
	ID    string         `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Name  string         `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Nodes []NodeDocument `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges []EdgeDocument `json:"edges" yaml:"edges" mapstructure:"edges"`
}

// NodeDocument is an authored node. Position is editor metadata and is ignored
// by the engine.
type NodeDocument struct {
	ID       string         `json:"id" yaml:"id" mapstructure:"id"`
	Type     string         `json:"type" yaml:"type" mapstructure:"type"`
	Label    string         `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Position *Position      `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data"`
}

// Position is the editor canvas location of a node.
type Position struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// EdgeDocument is an authored edge.
type EdgeDocument struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Source       string `json:"source" yaml:"source" mapstructure:"source"`
	Target       string `json:"target" yaml:"target" mapstructure:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty" mapstructure:"sourceHandle"`
}
