// Package compiler turns authored workflow documents into typed definitions
// and back.
package compiler

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/aretw0/arbor/internal/dto"
	"github.com/aretw0/arbor/internal/xjson"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parser is responsible for converting raw bytes into a WorkflowDefinition.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes JSON or YAML, sniffed from the first non-blank byte.
func (p *Parser) Parse(data []byte) (*domain.WorkflowDefinition, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return p.ParseJSON(trimmed)
	}
	return p.ParseYAML(data)
}

// ParseJSON decodes a JSON workflow document.
func (p *Parser) ParseJSON(data []byte) (*domain.WorkflowDefinition, error) {
	var doc dto.WorkflowDocument
	if err := xjson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse workflow JSON: %w", err)
	}
	return p.Compile(doc)
}

// ParseYAML decodes a YAML workflow document.
func (p *Parser) ParseYAML(data []byte) (*domain.WorkflowDefinition, error) {
	var doc dto.WorkflowDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
	}
	return p.Compile(doc)
}

// Compile type-checks and decodes every node of doc. Problems are collected
// into a single *domain.ValidationError.
func (p *Parser) Compile(doc dto.WorkflowDocument) (*domain.WorkflowDefinition, error) {
	def := &domain.WorkflowDefinition{
		ID:    doc.ID,
		Name:  doc.Name,
		Nodes: make([]domain.Node, 0, len(doc.Nodes)),
		Edges: make([]domain.Edge, 0, len(doc.Edges)),
	}

	var problems []string
	for _, nd := range doc.Nodes {
		node, err := compileNode(nd)
		if err != nil {
			problems = append(problems, fmt.Sprintf("node %q: %v", nd.ID, err))
			continue
		}
		def.Nodes = append(def.Nodes, node)
	}

	for i, ed := range doc.Edges {
		id := ed.ID
		if id == "" {
			id = fmt.Sprintf("e%d", i+1)
		}
		def.Edges = append(def.Edges, domain.Edge{
			ID:           id,
			Source:       ed.Source,
			Target:       ed.Target,
			SourceHandle: ed.SourceHandle,
		})
	}

	if len(problems) > 0 {
		return nil, &domain.ValidationError{Problems: problems}
	}
	return def, nil
}

func compileNode(nd dto.NodeDocument) (domain.Node, error) {
	t, err := domain.ParseNodeType(nd.Type)
	if err != nil {
		return domain.Node{}, err
	}
	if err := schema.Validate(nodeSchemas[t], nd.Data); err != nil {
		return domain.Node{}, err
	}

	cfg, err := decodeConfig(t, nd.Data)
	if err != nil {
		return domain.Node{}, err
	}

	label := nd.Label
	if l, ok := nd.Data["label"].(string); ok && label == "" {
		label = l
	}

	return domain.Node{ID: nd.ID, Type: t, Label: label, Config: cfg}, nil
}

func decodeConfig(t domain.NodeType, data map[string]any) (domain.NodeConfig, error) {
	switch t {
	case domain.NodeTypeInput:
		return domain.InputConfig{}, nil
	case domain.NodeTypeLLMCall:
		var c domain.LLMCallConfig
		return c, decode(data, &c)
	case domain.NodeTypeRAGQuery:
		var c domain.RAGQueryConfig
		return c, decode(data, &c)
	case domain.NodeTypeWebSearch:
		var c domain.WebSearchConfig
		return c, decode(data, &c)
	case domain.NodeTypeDataTransform:
		var c domain.DataTransformConfig
		return c, decode(data, &c)
	case domain.NodeTypeConditional:
		var c domain.ConditionalConfig
		return c, decode(data, &c)
	case domain.NodeTypeOutput:
		var c domain.OutputConfig
		return c, decode(data, &c)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownNodeType, t)
}

func decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}
	return nil
}

// Decompile renders a definition back into its authored shape. Zero-valued
// config fields are omitted.
func Decompile(def *domain.WorkflowDefinition) (dto.WorkflowDocument, error) {
	doc := dto.WorkflowDocument{
		ID:    def.ID,
		Name:  def.Name,
		Nodes: make([]dto.NodeDocument, 0, len(def.Nodes)),
		Edges: make([]dto.EdgeDocument, 0, len(def.Edges)),
	}

	for _, n := range def.Nodes {
		data := map[string]any{}
		if n.Config != nil {
			if err := mapstructure.Decode(n.Config, &data); err != nil {
				return dto.WorkflowDocument{}, fmt.Errorf("node %q: %w", n.ID, err)
			}
		}
		for k, v := range data {
			if v == nil || reflect.ValueOf(v).IsZero() {
				delete(data, k)
				continue
			}
			if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
				data[k] = rv.Elem().Interface()
			}
		}
		if n.Label != "" {
			data["label"] = n.Label
		}
		nd := dto.NodeDocument{ID: n.ID, Type: string(n.Type)}
		if len(data) > 0 {
			nd.Data = data
		}
		doc.Nodes = append(doc.Nodes, nd)
	}

	for _, e := range def.Edges {
		doc.Edges = append(doc.Edges, dto.EdgeDocument(e))
	}
	return doc, nil
}

// MarshalJSON renders def as an indented JSON document.
func MarshalJSON(def *domain.WorkflowDefinition) ([]byte, error) {
	doc, err := Decompile(def)
	if err != nil {
		return nil, err
	}
	return xjson.MarshalIndent(doc, "", "  ")
}
