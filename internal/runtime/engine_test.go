package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identity = domain.RunIdentity{WorkflowID: "wf-1", UserID: "user-1"}

func linear(middle func(*dsl.NodeBuilder)) *domain.WorkflowDefinition {
	b := dsl.New("linear")
	b.Add("in").Input().Go("mid")
	middle(b.Add("mid").Label("Middle"))
	b.Add("mid").Go("out")
	b.Add("out").Output("")
	return b.Definition()
}

func TestEngine_LLMChain(t *testing.T) {
	model := &stubModel{reply: "Hi there", in: 100, out: 50}
	engine := runtime.NewEngine(runtime.WithModelClient(model))

	def := linear(func(n *dsl.NodeBuilder) {
		n.LLMCall(domain.LLMCallConfig{SystemPrompt: "be brief", UserPromptTemplate: "Greet {{input}}"})
	})

	res := engine.Execute(context.Background(), def, "Ada", identity)

	require.Equal(t, domain.RunStatusCompleted, res.Status, res.ErrorMessage)
	assert.Equal(t, "Hi there", res.Output)
	assert.Equal(t, 150, res.TotalTokens)
	assert.InDelta(t, (100*3.0+50*15.0)/1_000_000, res.TotalCost, 1e-12)
	assert.Empty(t, res.ErrorMessage)

	require.Len(t, model.requests, 1)
	req := model.requests[0]
	assert.Equal(t, "Greet Ada", req.UserPrompt)
	assert.Equal(t, "be brief", req.SystemPrompt)
	assert.Equal(t, domain.DefaultModel, req.Model)
	assert.Equal(t, domain.DefaultMaxTokens, req.MaxTokens)
	assert.InDelta(t, domain.DefaultTemperature, req.Temperature, 1e-9)

	llm := res.NodeResults["mid"]
	assert.Equal(t, 150, llm.TokensUsed)
	assert.Equal(t, domain.DefaultModel, llm.Metadata["model"])
	assert.Equal(t, "Ada", res.NodeResults["in"].Output)
}

func TestEngine_ExplicitZeroTemperature(t *testing.T) {
	model := &stubModel{reply: "ok"}
	engine := runtime.NewEngine(runtime.WithModelClient(model))
	zero := 0.0

	def := linear(func(n *dsl.NodeBuilder) {
		n.LLMCall(domain.LLMCallConfig{Temperature: &zero, Model: "claude-3-5-haiku-latest"})
	})
	res := engine.Execute(context.Background(), def, "x", identity)

	require.Equal(t, domain.RunStatusCompleted, res.Status)
	assert.Zero(t, model.requests[0].Temperature)
	assert.Equal(t, "x", model.requests[0].UserPrompt)
}

func TestEngine_ConditionalRouting(t *testing.T) {
	b := dsl.New("routing")
	b.Add("in").Input().Go("check")
	b.Add("check").Conditional(domain.OpContains, "refund").Then("urgent").Else("triage")
	b.Add("urgent").Output("URGENT: {{input}}")
	b.Add("triage").Transform(domain.TransformTemplate, "[triage] {{input}}").Go("normal")
	b.Add("normal").Output("")
	def, err := b.Build()
	require.NoError(t, err)

	engine := runtime.NewEngine()

	t.Run("True Branch", func(t *testing.T) {
		res := engine.Execute(context.Background(), def, "I want a REFUND", identity)
		require.Equal(t, domain.RunStatusCompleted, res.Status, res.ErrorMessage)
		assert.Equal(t, "URGENT: I want a REFUND", res.Output)
		assert.Equal(t, domain.HandleTrue, res.NodeResults["check"].Branch)
		assert.Equal(t, domain.NodeStatusCompleted, res.NodeResults["urgent"].Status)
		assert.Equal(t, domain.NodeStatusSkipped, res.NodeResults["triage"].Status)
		assert.Equal(t, domain.NodeStatusSkipped, res.NodeResults["normal"].Status)
	})

	t.Run("False Branch", func(t *testing.T) {
		res := engine.Execute(context.Background(), def, "where is my order", identity)
		require.Equal(t, domain.RunStatusCompleted, res.Status, res.ErrorMessage)
		assert.Equal(t, "[triage] where is my order", res.Output)
		assert.Equal(t, domain.NodeStatusSkipped, res.NodeResults["urgent"].Status)
		assert.Equal(t, domain.NodeStatusCompleted, res.NodeResults["normal"].Status)
	})
}

func TestEngine_BranchesRejoin(t *testing.T) {
	b := dsl.New("rejoin")
	b.Add("in").Input().Go("check")
	b.Add("check").Conditional(domain.OpLengthGT, "10").Then("long").Else("short")
	b.Add("long").Transform(domain.TransformTemplate, "long: {{input}}").Go("merge")
	b.Add("short").Transform(domain.TransformTemplate, "short: {{input}}").Go("merge")
	b.Add("merge").Output("")
	def, err := b.Build()
	require.NoError(t, err)

	res := runtime.NewEngine().Execute(context.Background(), def, "tiny", identity)

	require.Equal(t, domain.RunStatusCompleted, res.Status, res.ErrorMessage)
	assert.Equal(t, "short: tiny", res.Output)
	assert.Equal(t, domain.NodeStatusSkipped, res.NodeResults["long"].Status)
	assert.Equal(t, domain.NodeStatusCompleted, res.NodeResults["merge"].Status)
}

func TestEngine_MultipleOutputsJoined(t *testing.T) {
	b := dsl.New("fanout")
	b.Add("in").Input().Go("a", "b")
	b.Add("a").Output("A={{input}}")
	b.Add("b").Output("B={{input}}")
	def, err := b.Build()
	require.NoError(t, err)

	res := runtime.NewEngine().Execute(context.Background(), def, "x", identity)
	require.Equal(t, domain.RunStatusCompleted, res.Status)
	assert.Equal(t, "A=x\n\nB=x", res.Output)
}

func TestEngine_FailFast(t *testing.T) {
	def := linear(func(n *dsl.NodeBuilder) {
		n.Transform(domain.TransformExtractJSON, "field")
	})

	res := runtime.NewEngine().Execute(context.Background(), def, "definitely not json", identity)

	assert.Equal(t, domain.RunStatusFailed, res.Status)
	assert.Contains(t, res.ErrorMessage, `Node "Middle" failed`)
	assert.Equal(t, domain.NodeStatusFailed, res.NodeResults["mid"].Status)
	assert.NotContains(t, res.NodeResults, "out")
	assert.Empty(t, res.Output)
}

func TestEngine_LLMErrors(t *testing.T) {
	t.Run("Provider Error", func(t *testing.T) {
		engine := runtime.NewEngine(runtime.WithModelClient(&stubModel{err: fmt.Errorf("anthropic: %w", domain.ErrMissingCredentials)}))
		res := engine.Execute(context.Background(), linear(func(n *dsl.NodeBuilder) { n.Prompt("{{input}}") }), "x", identity)

		assert.Equal(t, domain.RunStatusFailed, res.Status)
		assert.Contains(t, res.ErrorMessage, "missing credentials")
		assert.Zero(t, res.TotalTokens)
	})

	t.Run("No Client", func(t *testing.T) {
		res := runtime.NewEngine().Execute(context.Background(), linear(func(n *dsl.NodeBuilder) { n.Prompt("{{input}}") }), "x", identity)
		assert.Equal(t, domain.RunStatusFailed, res.Status)
		assert.Contains(t, res.ErrorMessage, "no model client configured")
	})
}

type panicModel struct{}

func (panicModel) Invoke(context.Context, ports.ModelRequest) (ports.ModelResponse, error) {
	panic("kaboom")
}

func TestEngine_ExecutorPanicBecomesFailure(t *testing.T) {
	engine := runtime.NewEngine(runtime.WithModelClient(panicModel{}))
	res := engine.Execute(context.Background(), linear(func(n *dsl.NodeBuilder) { n.Prompt("x") }), "x", identity)

	assert.Equal(t, domain.RunStatusFailed, res.Status)
	assert.Contains(t, res.NodeResults["mid"].ErrorMessage, "kaboom")
}

func TestEngine_RAGQuery(t *testing.T) {
	retriever := &stubRetriever{chunks: []ports.Chunk{
		{Content: "Go has goroutines.", Score: 0.91},
		{Content: "Channels connect them.", Score: 0.756},
		{Content: "Unrelated.", Score: 0.2},
	}}
	engine := runtime.NewEngine(runtime.WithRetriever(retriever))

	def := linear(func(n *dsl.NodeBuilder) {
		n.RAGQuery(domain.RAGQueryConfig{QueryTemplate: "about {{input}}", TopK: 3, MinRelevance: 0.5})
	})
	res := engine.Execute(context.Background(), def, "concurrency", identity)

	require.Equal(t, domain.RunStatusCompleted, res.Status, res.ErrorMessage)
	assert.Equal(t, "[1] (relevance: 0.91)\nGo has goroutines.\n\n---\n\n[2] (relevance: 0.76)\nChannels connect them.", res.Output)
	assert.Equal(t, "user-1", retriever.owner)
	assert.Equal(t, "about concurrency", retriever.query)
	assert.Equal(t, 3, retriever.topK)
	assert.Zero(t, res.TotalCost)

	t.Run("Nothing Relevant", func(t *testing.T) {
		retriever.chunks = []ports.Chunk{{Content: "weak", Score: 0.1}}
		res := engine.Execute(context.Background(), def, "concurrency", identity)
		require.Equal(t, domain.RunStatusCompleted, res.Status)
		assert.Equal(t, runtime.NoDocumentsMessage, res.Output)
	})

	t.Run("Default TopK", func(t *testing.T) {
		def := linear(func(n *dsl.NodeBuilder) { n.RAGQuery(domain.RAGQueryConfig{}) })
		engine.Execute(context.Background(), def, "q", identity)
		assert.Equal(t, domain.DefaultTopK, retriever.topK)
		assert.Equal(t, "q", retriever.query)
	})

	t.Run("Retriever Error", func(t *testing.T) {
		failing := runtime.NewEngine(runtime.WithRetriever(&stubRetriever{err: errBoom}))
		res := failing.Execute(context.Background(), def, "q", identity)
		assert.Equal(t, domain.RunStatusFailed, res.Status)
		assert.Contains(t, res.ErrorMessage, "boom")
	})
}

func TestEngine_WebSearch(t *testing.T) {
	search := &stubSearch{hits: []ports.SearchResult{
		{Title: "Go", URL: "https://go.dev", Content: "The Go language"},
		{Title: "Tour", URL: "https://go.dev/tour", Content: "A tour of Go"},
	}}
	engine := runtime.NewEngine(runtime.WithSearchProvider(search))
	def := linear(func(n *dsl.NodeBuilder) {
		n.WebSearch(domain.WebSearchConfig{QueryTemplate: "{{input}} docs", MaxResults: 2})
	})

	res := engine.Execute(context.Background(), def, "golang", identity)

	require.Equal(t, domain.RunStatusCompleted, res.Status, res.ErrorMessage)
	assert.Equal(t, "[1] Go\nhttps://go.dev\nThe Go language\n\n---\n\n[2] Tour\nhttps://go.dev/tour\nA tour of Go", res.Output)
	assert.Equal(t, "golang docs", search.query)
	assert.Equal(t, 2, search.max)

	t.Run("No Results", func(t *testing.T) {
		search.hits = nil
		res := engine.Execute(context.Background(), def, "golang", identity)
		require.Equal(t, domain.RunStatusCompleted, res.Status)
		assert.Equal(t, runtime.NoResultsMessage, res.Output)
	})

	t.Run("Provider Error", func(t *testing.T) {
		search.err = fmt.Errorf("search request failed with status 401")
		res := engine.Execute(context.Background(), def, "golang", identity)
		assert.Equal(t, domain.RunStatusFailed, res.Status)
		assert.Contains(t, res.ErrorMessage, "401")
	})
}

func TestEngine_ValidationFailure(t *testing.T) {
	store := newRecordingStore()
	engine := runtime.NewEngine(runtime.WithAuditStore(store))

	b := dsl.New("invalid")
	b.Add("in").Input()
	res := engine.Execute(context.Background(), b.Definition(), "x", identity)

	assert.Equal(t, domain.RunStatusFailed, res.Status)
	assert.Contains(t, res.ErrorMessage, "Validation failed")
	assert.Contains(t, res.ErrorMessage, "at least one Output node")
	assert.Empty(t, res.NodeResults)
	assert.Empty(t, res.ExecutionID)
	assert.Empty(t, store.executions, "invalid definitions create no execution record")
}

func TestEngine_CycleRejected(t *testing.T) {
	b := dsl.New("cycle")
	b.Add("in").Input().Go("a")
	b.Add("a").Transform("", "").Go("b")
	b.Add("b").Transform("", "").Go("a", "out")
	b.Add("out").Output("")

	res := runtime.NewEngine().Execute(context.Background(), b.Definition(), "x", identity)
	assert.Equal(t, domain.RunStatusFailed, res.Status)
	assert.Contains(t, res.ErrorMessage, "cycle")
	assert.Empty(t, res.NodeResults)
}

func TestEngine_Timeout(t *testing.T) {
	def := linear(func(n *dsl.NodeBuilder) { n.Transform("", "") })

	t.Run("Exceeded", func(t *testing.T) {
		engine := runtime.NewEngine(
			runtime.WithClock(steppingClock(time.Minute)),
			runtime.WithTimeout(30*time.Second),
		)
		res := engine.Execute(context.Background(), def, "x", identity)

		assert.Equal(t, domain.RunStatusFailed, res.Status)
		assert.Equal(t, domain.TimeoutMessage, res.ErrorMessage)
		assert.NotContains(t, res.NodeResults, "out")
	})

	t.Run("Within Budget", func(t *testing.T) {
		engine := runtime.NewEngine(
			runtime.WithClock(steppingClock(time.Minute)),
			runtime.WithTimeout(time.Hour),
		)
		res := engine.Execute(context.Background(), def, "x", identity)
		assert.Equal(t, domain.RunStatusCompleted, res.Status)
		assert.Positive(t, res.DurationMs)
	})
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := runtime.NewEngine().Execute(ctx, linear(func(n *dsl.NodeBuilder) { n.Transform("", "") }), "x", identity)
	assert.Equal(t, domain.RunStatusFailed, res.Status)
	assert.Contains(t, res.ErrorMessage, "cancelled")
	assert.Empty(t, res.NodeResults)
}

func TestEngine_ConcurrentRunsAreIsolated(t *testing.T) {
	engine := runtime.NewEngine(runtime.WithModelClient(echoModel{}))
	b := dsl.New("echo")
	b.Add("in").Input().Go("check")
	b.Add("check").Conditional(domain.OpContains, "even").Then("llm").Else("plain")
	b.Add("llm").Prompt("{{input}}").Go("out1")
	b.Add("out1").Output("")
	b.Add("plain").Output("plain: {{input}}")
	def, err := b.Build()
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*domain.WorkflowExecutionResult, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			parity := "odd"
			if i%2 == 0 {
				parity = "even"
			}
			results[i] = engine.Execute(context.Background(), def, fmt.Sprintf("%s-%d", parity, i), identity)
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.Equal(t, domain.RunStatusCompleted, res.Status)
		if i%2 == 0 {
			assert.Equal(t, fmt.Sprintf("echo: even-%d", i), res.Output)
			assert.Equal(t, 15, res.TotalTokens)
		} else {
			assert.Equal(t, fmt.Sprintf("plain: odd-%d", i), res.Output)
			assert.Zero(t, res.TotalTokens)
		}
	}
}
