package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// GraphOverlay contains run data to visualize on the graph.
type GraphOverlay struct {
	Statuses map[string]domain.NodeStatus
}

// OverlayFromResult builds an overlay from the node results of a run.
func OverlayFromResult(res *domain.WorkflowExecutionResult) *GraphOverlay {
	if res == nil {
		return nil
	}
	o := &GraphOverlay{Statuses: make(map[string]domain.NodeStatus, len(res.NodeResults))}
	for id, nr := range res.NodeResults {
		o.Statuses[id] = nr.Status
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a workflow definition.
// It applies semantic styling:
// - Input: ((Circle))
// - Output: ([Stadium])
// - LLMCall: [[Subroutine]]
// - RAGQuery: [(Database)]
// - WebSearch: [/Parallelogram/]
// - Conditional: {Rhombus}
// - Default: [Rectangle]
// Conditional edges are labelled with their branch, and overlay styles are
// applied per node status when an overlay is given.
func GenerateMermaid(def *domain.WorkflowDefinition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if def == nil {
		return sb.String()
	}

	for _, node := range def.Nodes {
		opener, closer := shape(node.Type)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(node.ID), opener, escapeLabel(node.DisplayName()), closer)
	}

	for _, e := range def.Edges {
		arrow := "-->"
		switch e.SourceHandle {
		case domain.HandleTrue:
			arrow = `-- "true" -->`
		case domain.HandleFalse:
			arrow = `-. "false" .->`
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.Source), arrow, sanitizeMermaidID(e.Target))
	}

	if overlay != nil && len(overlay.Statuses) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills regardless of theme.
		sb.WriteString("    classDef completed fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 4,color:#000;\n")

		ids := make([]string, 0, len(overlay.Statuses))
		for id := range overlay.Statuses {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			switch status := overlay.Statuses[id]; status {
			case domain.NodeStatusCompleted, domain.NodeStatusFailed, domain.NodeStatusSkipped:
				fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(id), status)
			}
		}
	}

	return sb.String()
}

func shape(t domain.NodeType) (string, string) {
	switch t {
	case domain.NodeTypeInput:
		return "((", "))"
	case domain.NodeTypeOutput:
		return "([", "])"
	case domain.NodeTypeLLMCall:
		return "[[", "]]"
	case domain.NodeTypeRAGQuery:
		return "[(", ")]"
	case domain.NodeTypeWebSearch:
		return "[/", "/]"
	case domain.NodeTypeConditional:
		return "{", "}"
	}
	return "[", "]"
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
