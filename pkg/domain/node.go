package domain

import (
	"fmt"
	"strings"
)

// NodeType is the closed set of node kinds the engine knows how to execute.
type NodeType string

const (
	// NodeTypeInput emits the run input.
	NodeTypeInput NodeType = "input"
	// NodeTypeLLMCall asks the generative model for a completion.
	NodeTypeLLMCall NodeType = "llmCall"
	// NodeTypeRAGQuery retrieves chunks from the owner's document store.
	NodeTypeRAGQuery NodeType = "ragQuery"
	// NodeTypeWebSearch queries the external search provider.
	NodeTypeWebSearch NodeType = "webSearch"
	// NodeTypeDataTransform reshapes text without external calls.
	NodeTypeDataTransform NodeType = "dataTransform"
	// NodeTypeConditional evaluates a predicate and selects a branch.
	NodeTypeConditional NodeType = "conditional"
	// NodeTypeOutput formats a final output.
	NodeTypeOutput NodeType = "output"
)

// NodeTypes lists every known type in a stable order.
var NodeTypes = []NodeType{
	NodeTypeInput,
	NodeTypeLLMCall,
	NodeTypeRAGQuery,
	NodeTypeWebSearch,
	NodeTypeDataTransform,
	NodeTypeConditional,
	NodeTypeOutput,
}

// ParseNodeType normalizes an authored type name.
// "llmCall", "llm_call", "LLM-Call" and "LLMCALL" all resolve to NodeTypeLLMCall.
func ParseNodeType(s string) (NodeType, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	for _, t := range NodeTypes {
		if strings.ToLower(string(t)) == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, s)
}

// Node is a typed processing step of a workflow.
type Node struct {
	ID     string     `json:"id" yaml:"id"`
	Type   NodeType   `json:"type" yaml:"type"`
	Label  string     `json:"label,omitempty" yaml:"label,omitempty"`
	Config NodeConfig `json:"-" yaml:"-"`
}

// DisplayName returns the label shown in error messages, falling back to the ID.
func (n Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge connects two nodes. SourceHandle is only meaningful on edges leaving a
// Conditional node, where it is HandleTrue or HandleFalse.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
}

// Branch handles emitted by Conditional nodes.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// WorkflowDefinition is the immutable graph executed by a run.
type WorkflowDefinition struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node returns the node with the given ID.
func (d *WorkflowDefinition) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodesOfType returns the nodes of type t in definition order.
func (d *WorkflowDefinition) NodesOfType(t NodeType) []Node {
	var out []Node
	for _, n := range d.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}
