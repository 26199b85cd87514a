package compiler

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
)

// nodeSchemas type-checks authored node data. Every field is optional because
// each has a default.
var nodeSchemas = map[domain.NodeType]schema.Schema{
	domain.NodeTypeInput: {
		"label": schema.String(),
	},
	domain.NodeTypeLLMCall: {
		"label":              schema.String(),
		"model":              schema.String(),
		"systemPrompt":       schema.String(),
		"userPromptTemplate": schema.String(),
		"maxTokens":          schema.Int(schema.Min(1)),
		"temperature":        schema.Float(schema.Min(0), schema.Max(1)),
	},
	domain.NodeTypeRAGQuery: {
		"label":         schema.String(),
		"queryTemplate": schema.String(),
		"topK":          schema.Int(schema.Min(1)),
		"minRelevance":  schema.Float(schema.Min(0), schema.Max(1)),
	},
	domain.NodeTypeWebSearch: {
		"label":         schema.String(),
		"queryTemplate": schema.String(),
		"maxResults":    schema.Int(schema.Min(1)),
	},
	domain.NodeTypeDataTransform: {
		"label":         schema.String(),
		"transformType": schema.String(),
		"config":        schema.String(),
	},
	domain.NodeTypeConditional: {
		"label":          schema.String(),
		"operator":       schema.String(),
		"conditionValue": schema.Scalar(),
	},
	domain.NodeTypeOutput: {
		"label":          schema.String(),
		"formatTemplate": schema.String(),
	},
}
