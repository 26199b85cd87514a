package arbor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/runner"
)

func newEngine(t *testing.T, opts ...arbor.Option) *arbor.Engine {
	t.Helper()
	engine, err := arbor.New("", opts...)
	require.NoError(t, err)
	return engine
}

func TestFacade_TemplateChain(t *testing.T) {
	b := dsl.New("hello")
	b.Add("in").Input().Go("t")
	b.Add("t").Transform(domain.TransformTemplate, "Hello {{input}}").Go("out")
	b.Add("out").Output("")

	res := newEngine(t).Execute(context.Background(), b.Definition(), "World", domain.RunIdentity{WorkflowID: "hello"})

	assert.Equal(t, domain.RunStatusCompleted, res.Status, res.ErrorMessage)
	assert.Equal(t, "Hello World", res.Output)
	assert.Zero(t, res.TotalTokens)
}

func TestFacade_ConditionalSkipsOtherBranch(t *testing.T) {
	b := dsl.New("branch")
	b.Add("in").Input().Go("check")
	b.Add("check").Conditional(domain.OpContains, "urgent").Then("page").Else("queue")
	b.Add("page").Transform(domain.TransformTemplate, "PAGE: {{input}}").Go("page-out")
	b.Add("queue").Transform(domain.TransformTemplate, "QUEUE: {{input}}").Go("queue-out")
	b.Add("page-out").Output("")
	b.Add("queue-out").Output("")

	store := memory.NewStore()
	res := newEngine(t, arbor.WithAuditStore(store)).
		Execute(context.Background(), b.Definition(), "this is URGENT", domain.RunIdentity{WorkflowID: "branch"})

	require.Equal(t, domain.RunStatusCompleted, res.Status, res.ErrorMessage)
	assert.Equal(t, "PAGE: this is URGENT", res.Output)

	completedOutputs := 0
	for _, id := range []string{"page-out", "queue-out"} {
		if res.NodeResults[id].Status == domain.NodeStatusCompleted {
			completedOutputs++
		}
	}
	assert.Equal(t, 1, completedOutputs)
	assert.Equal(t, domain.NodeStatusSkipped, res.NodeResults["queue"].Status)
	assert.Equal(t, domain.NodeStatusSkipped, res.NodeResults["queue-out"].Status)

	nodes, err := store.ListNodeExecutions(context.Background(), res.ExecutionID)
	require.NoError(t, err)
	statuses := map[string]domain.NodeStatus{}
	for _, n := range nodes {
		statuses[n.NodeID] = n.Status
	}
	assert.Equal(t, domain.NodeStatusSkipped, statuses["queue-out"])
}

func TestFacade_FailFast(t *testing.T) {
	b := dsl.New("fails")
	b.Add("in").Input().Go("parse")
	b.Add("parse").Label("Parse Payload").Transform(domain.TransformExtractJSON, "user.name").Go("out")
	b.Add("out").Output("")

	res := newEngine(t).Execute(context.Background(), b.Definition(), "not json", domain.RunIdentity{WorkflowID: "fails"})

	assert.Equal(t, domain.RunStatusFailed, res.Status)
	assert.Contains(t, res.ErrorMessage, "Parse Payload")
	assert.NotEqual(t, domain.NodeStatusCompleted, res.NodeResults["out"].Status)
}

func TestFacade_InvalidDefinition(t *testing.T) {
	b := dsl.New("no-output")
	b.Add("in").Input()

	def := b.Definition()
	assert.Contains(t, arbor.Validate(def), "workflow must have at least one Output node")

	res := newEngine(t).Execute(context.Background(), def, "x", domain.RunIdentity{})
	assert.Equal(t, domain.RunStatusFailed, res.Status)
	assert.Contains(t, res.ErrorMessage, "Validation failed: ")
}

func TestParseDefinition_ChecksDocument(t *testing.T) {
	def, err := arbor.ParseDefinition([]byte("\xEF\xBB\xBFid: bom\nnodes:\n  - id: in\n    type: input\n"))
	require.NoError(t, err)
	assert.Equal(t, "bom", def.ID)

	_, err = arbor.ParseDefinition([]byte("id: x\x00\n"))
	assert.ErrorIs(t, err, runner.ErrDefinitionControl)

	t.Setenv(runner.EnvMaxDefinitionSize, "16")
	_, err = arbor.ParseDefinition([]byte("id: a-rather-long-workflow-id\n"))
	assert.ErrorIs(t, err, runner.ErrDefinitionTooLarge)
}

func TestFacade_RunWithoutLoader(t *testing.T) {
	_, err := newEngine(t).Run(context.Background(), "anything", "x", "")
	assert.Error(t, err)
}

func TestFacade_RunUnknownWorkflow(t *testing.T) {
	loader, err := memory.NewLoader()
	require.NoError(t, err)

	_, err = newEngine(t, arbor.WithLoader(loader)).Run(context.Background(), "missing", "x", "")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}

func TestFacade_LoamRepository(t *testing.T) {
	dir, _ := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"echo.md": `---
nodes:
  - id: in
    type: input
  - id: out
    type: output
    data:
      formatTemplate: "echo: {{input}}"
edges:
  - source: in
    target: out
---
Echoes its input.
`,
	})

	engine, err := arbor.New(dir)
	require.NoError(t, err)
	require.NotNil(t, engine.Loader())

	res, err := engine.Run(context.Background(), "echo", "hi", "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, res.Status, res.ErrorMessage)
	assert.Equal(t, "echo: hi", res.Output)
}
