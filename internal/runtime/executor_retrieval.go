package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Fixed outputs when retrieval finds nothing.
const (
	NoDocumentsMessage = "No relevant documents found."
	NoResultsMessage   = "No search results found."
)

// resultSeparator joins formatted chunks and search hits.
const resultSeparator = "\n\n---\n\n"

func (e *Engine) executeRAGQuery(ctx context.Context, cfg domain.RAGQueryConfig, input, ownerID string) domain.NodeExecutionResult {
	if e.retriever == nil {
		return failed("no retriever configured")
	}
	cfg = cfg.WithDefaults()
	query := Interpolate(cfg.QueryTemplate, input)

	chunks, err := e.retriever.Search(ctx, ownerID, query, cfg.TopK)
	if err != nil {
		return failed(fmt.Sprintf("retrieval failed: %v", err))
	}

	var parts []string
	for _, c := range chunks {
		if c.Score < cfg.MinRelevance {
			continue
		}
		if len(parts) == cfg.TopK {
			break
		}
		parts = append(parts, fmt.Sprintf("[%d] (relevance: %.2f)\n%s", len(parts)+1, c.Score, c.Content))
	}

	res := completed(NoDocumentsMessage)
	if len(parts) > 0 {
		res.Output = strings.Join(parts, resultSeparator)
	}
	res.Metadata = map[string]any{"query": query, "chunks": len(parts)}
	return res
}

func (e *Engine) executeWebSearch(ctx context.Context, cfg domain.WebSearchConfig, input string) domain.NodeExecutionResult {
	if e.search == nil {
		return failed("no search provider configured")
	}
	cfg = cfg.WithDefaults()
	query := Interpolate(cfg.QueryTemplate, input)

	hits, err := e.search.Search(ctx, query, cfg.MaxResults)
	if err != nil {
		return failed(err.Error())
	}
	if len(hits) > cfg.MaxResults {
		hits = hits[:cfg.MaxResults]
	}

	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = fmt.Sprintf("[%d] %s\n%s\n%s", i+1, h.Title, h.URL, h.Content)
	}

	res := completed(NoResultsMessage)
	if len(parts) > 0 {
		res.Output = strings.Join(parts, resultSeparator)
	}
	res.Metadata = map[string]any{"query": query, "results": len(parts)}
	return res
}
