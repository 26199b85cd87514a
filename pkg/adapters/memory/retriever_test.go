package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetriever_Search(t *testing.T) {
	r := memory.NewRetriever()
	r.Add("alice", "go.md", "Goroutines are lightweight threads.\n\nChannels connect goroutines together.\n\nUnrelated cooking notes.")
	r.Add("bob", "secret.md", "Goroutines belong to bob.")

	ctx := context.Background()

	hits, err := r.Search(ctx, "alice", "How do goroutines use channels?", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Channels connect goroutines together.", hits[0].Content)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, "go.md", hits[0].DocumentID)

	t.Run("TopK", func(t *testing.T) {
		hits, _ := r.Search(ctx, "alice", "goroutines", 1)
		assert.Len(t, hits, 1)
	})

	t.Run("Owner Isolation", func(t *testing.T) {
		hits, _ := r.Search(ctx, "carol", "goroutines", 5)
		assert.Empty(t, hits)
	})

	t.Run("No Overlap", func(t *testing.T) {
		hits, _ := r.Search(ctx, "alice", "kubernetes", 5)
		assert.Empty(t, hits)
	})
}
