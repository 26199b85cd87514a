package ports

import "context"

// Chunk is a retrieved document fragment with its relevance score in [0,1].
type Chunk struct {
	DocumentID string
	Content    string
	Score      float64
}

// Retriever searches the documents owned by a user.
type Retriever interface {
	// Search returns at most topK chunks ordered by descending score.
	Search(ctx context.Context, ownerID, query string, topK int) ([]Chunk, error)
}

// SearchResult is a single web search hit.
type SearchResult struct {
	Title   string
	URL     string
	Content string
}

// SearchProvider queries an external web search API.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}
