package dsl

import "github.com/aretw0/arbor/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Label sets the display name used in logs and error messages.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = label
	return n
}

// Input marks the node as the workflow entry that emits the run input.
func (n *NodeBuilder) Input() *NodeBuilder {
	return n.set(domain.NodeTypeInput, domain.InputConfig{})
}

// LLMCall configures a model completion.
func (n *NodeBuilder) LLMCall(cfg domain.LLMCallConfig) *NodeBuilder {
	return n.set(domain.NodeTypeLLMCall, cfg)
}

// Prompt is a shorthand for an LLMCall with only a user prompt template.
func (n *NodeBuilder) Prompt(template string) *NodeBuilder {
	return n.LLMCall(domain.LLMCallConfig{UserPromptTemplate: template})
}

// RAGQuery configures a document retrieval.
func (n *NodeBuilder) RAGQuery(cfg domain.RAGQueryConfig) *NodeBuilder {
	return n.set(domain.NodeTypeRAGQuery, cfg)
}

// WebSearch configures a web search.
func (n *NodeBuilder) WebSearch(cfg domain.WebSearchConfig) *NodeBuilder {
	return n.set(domain.NodeTypeWebSearch, cfg)
}

// Transform configures a DataTransform of the given kind.
func (n *NodeBuilder) Transform(kind, config string) *NodeBuilder {
	return n.set(domain.NodeTypeDataTransform, domain.DataTransformConfig{TransformType: kind, Config: config})
}

// Conditional configures a branch predicate. Use Then and Else to wire its exits.
func (n *NodeBuilder) Conditional(operator, value string) *NodeBuilder {
	return n.set(domain.NodeTypeConditional, domain.ConditionalConfig{Operator: operator, ConditionValue: value})
}

// Output marks the node as a final output, formatted with template when non-empty.
func (n *NodeBuilder) Output(template string) *NodeBuilder {
	return n.set(domain.NodeTypeOutput, domain.OutputConfig{FormatTemplate: template})
}

// Go connects this node to each target.
func (n *NodeBuilder) Go(targets ...string) *NodeBuilder {
	for _, t := range targets {
		n.builder.Connect(n.node.ID, t, "")
	}
	return n
}

// Then connects the true exit of a Conditional.
func (n *NodeBuilder) Then(target string) *NodeBuilder {
	n.builder.Connect(n.node.ID, target, domain.HandleTrue)
	return n
}

// Else connects the false exit of a Conditional.
func (n *NodeBuilder) Else(target string) *NodeBuilder {
	n.builder.Connect(n.node.ID, target, domain.HandleFalse)
	return n
}

func (n *NodeBuilder) set(t domain.NodeType, cfg domain.NodeConfig) *NodeBuilder {
	n.node.Type = t
	n.node.Config = cfg
	return n
}
