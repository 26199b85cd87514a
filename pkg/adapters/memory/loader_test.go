package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader(t *testing.T) {
	b := dsl.New("hello")
	b.Add("in").Input().Go("out")
	b.Add("out").Output("")

	loader, err := memory.NewLoader(b.Definition())
	require.NoError(t, err)

	ctx := context.Background()
	ids, err := loader.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, ids)

	def, err := loader.Get(ctx, "hello")
	require.NoError(t, err)
	assert.Len(t, def.Nodes, 2)

	// Copies are isolated from the store.
	def.Nodes[0].ID = "mutated"
	again, _ := loader.Get(ctx, "hello")
	assert.Equal(t, "in", again.Nodes[0].ID)

	_, err = loader.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)

	_, err = memory.NewLoader(&domain.WorkflowDefinition{})
	assert.Error(t, err)
}
