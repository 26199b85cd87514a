package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/aretw0/arbor/pkg/ports"
)

// Retriever implements ports.Retriever with keyword overlap over paragraphs.
// A chunk's score is the fraction of distinct query terms it contains.
type Retriever struct {
	chunks map[string][]indexedChunk
	mu     sync.RWMutex
}

type indexedChunk struct {
	ports.Chunk
	terms map[string]struct{}
}

// NewRetriever creates an empty retriever.
func NewRetriever() *Retriever {
	return &Retriever{chunks: make(map[string][]indexedChunk)}
}

// Add indexes a document for ownerID, one chunk per paragraph.
func (r *Retriever) Add(ownerID, documentID, content string) {
	var added []indexedChunk
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		added = append(added, indexedChunk{
			Chunk: ports.Chunk{DocumentID: documentID, Content: para},
			terms: terms(para),
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks[ownerID] = append(r.chunks[ownerID], added...)
}

// Search returns the best topK chunks of ownerID with a positive score.
func (r *Retriever) Search(ctx context.Context, ownerID, query string, topK int) ([]ports.Chunk, error) {
	q := terms(query)
	if len(q) == 0 || topK <= 0 {
		return nil, nil
	}

	r.mu.RLock()
	candidates := r.chunks[ownerID]
	r.mu.RUnlock()

	var hits []ports.Chunk
	for _, c := range candidates {
		matched := 0
		for t := range q {
			if _, ok := c.terms[t]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hit := c.Chunk
		hit.Score = float64(matched) / float64(len(q))
		hits = append(hits, hit)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func terms(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len(f) > 2 {
			out[f] = struct{}{}
		}
	}
	return out
}
