package compiler_test

import (
	"testing"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const editorJSON = `{
  "id": "support",
  "name": "Support triage",
  "nodes": [
    {"id": "in", "type": "input", "position": {"x": 0, "y": 0}, "data": {"label": "Ticket"}},
    {"id": "llm", "type": "llmCall", "position": {"x": 100, "y": 0},
     "data": {"label": "Summarize", "model": "claude-3-5-haiku-latest", "userPromptTemplate": "Summarize: {{input}}", "maxTokens": 256, "temperature": 0}},
    {"id": "rag", "type": "rag_query", "data": {"topK": "3", "minRelevance": 0.4}},
    {"id": "check", "type": "conditional", "data": {"operator": "length_gt", "conditionValue": 100}},
    {"id": "out", "type": "output", "data": {"formatTemplate": "Result: {{input}}"}}
  ],
  "edges": [
    {"id": "e1", "source": "in", "target": "llm"},
    {"source": "llm", "target": "check"},
    {"id": "e3", "source": "check", "target": "out", "sourceHandle": "true"}
  ]
}`

func TestParser_ParseJSON(t *testing.T) {
	def, err := compiler.NewParser().Parse([]byte(editorJSON))
	require.NoError(t, err)

	assert.Equal(t, "support", def.ID)
	assert.Equal(t, "Support triage", def.Name)
	require.Len(t, def.Nodes, 5)

	assert.Equal(t, "Ticket", def.Nodes[0].Label)
	assert.Equal(t, domain.InputConfig{}, def.Nodes[0].Config)

	llm, ok := def.Nodes[1].Config.(domain.LLMCallConfig)
	require.True(t, ok)
	assert.Equal(t, "Summarize", def.Nodes[1].Label)
	assert.Equal(t, "claude-3-5-haiku-latest", llm.Model)
	assert.Equal(t, 256, llm.MaxTokens)
	require.NotNil(t, llm.Temperature)
	assert.Zero(t, *llm.Temperature)

	assert.Equal(t, domain.NodeTypeRAGQuery, def.Nodes[2].Type)
	assert.Equal(t, domain.RAGQueryConfig{TopK: 3, MinRelevance: 0.4}, def.Nodes[2].Config)

	assert.Equal(t, domain.ConditionalConfig{Operator: "length_gt", ConditionValue: "100"}, def.Nodes[3].Config)

	require.Len(t, def.Edges, 3)
	assert.Equal(t, "e2", def.Edges[1].ID, "missing edge ids are generated")
	assert.Equal(t, domain.HandleTrue, def.Edges[2].SourceHandle)
}

func TestParser_ParseYAML(t *testing.T) {
	src := `
id: echo
nodes:
  - id: in
    type: input
  - id: shape
    type: data_transform
    data:
      transformType: split
      config: ";"
  - id: out
    type: output
edges:
  - {id: e1, source: in, target: shape}
  - {id: e2, source: shape, target: out}
`
	def, err := compiler.NewParser().Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, def.Nodes, 3)
	assert.Equal(t, domain.DataTransformConfig{TransformType: "split", Config: ";"}, def.Nodes[1].Config)
	assert.Equal(t, domain.OutputConfig{}, def.Nodes[2].Config)
}

func TestParser_Problems(t *testing.T) {
	src := `{
	  "nodes": [
	    {"id": "a", "type": "teleport"},
	    {"id": "b", "type": "ragQuery", "data": {"topK": 0, "minRelevance": "high"}},
	    {"id": "c", "type": "llmCall", "data": {"maxTokens": 10.5}}
	  ]
	}`
	_, err := compiler.NewParser().Parse([]byte(src))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Problems, 3)
	assert.Contains(t, verr.Problems[0], "unknown node type")
	assert.Contains(t, verr.Problems[1], `field "minRelevance"`)
	assert.Contains(t, verr.Problems[1], `field "topK"`)
	assert.Contains(t, verr.Problems[2], "not a whole number")
}

func TestParser_Malformed(t *testing.T) {
	_, err := compiler.NewParser().Parse([]byte(`{"nodes": [`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidDefinition)
}

func TestDecompile_RoundTrip(t *testing.T) {
	p := compiler.NewParser()
	def, err := p.Parse([]byte(editorJSON))
	require.NoError(t, err)

	data, err := compiler.MarshalJSON(def)
	require.NoError(t, err)

	again, err := p.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, def, again)
}
