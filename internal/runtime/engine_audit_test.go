package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func branching(t *testing.T) *domain.WorkflowDefinition {
	t.Helper()
	b := dsl.New("audited")
	b.Add("in").Input().Go("check")
	b.Add("check").Conditional(domain.OpEquals, "go").Then("yes").Else("no")
	b.Add("yes").Prompt("Say yes to {{input}}").Go("out")
	b.Add("no").Output("nope")
	b.Add("out").Output("")
	def, err := b.Build()
	require.NoError(t, err)
	return def
}

func TestEngine_AuditTrail(t *testing.T) {
	store := newRecordingStore()
	engine := runtime.NewEngine(
		runtime.WithAuditStore(store),
		runtime.WithModelClient(&stubModel{reply: "yes!", in: 3, out: 2}),
	)

	res := engine.Execute(context.Background(), branching(t), "Go", identity)
	require.Equal(t, domain.RunStatusCompleted, res.Status, res.ErrorMessage)
	assert.Equal(t, "exec-1", res.ExecutionID)

	rec, err := store.GetExecution(context.Background(), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, rec.Status)
	assert.Equal(t, "yes!", rec.Output)
	assert.Equal(t, 5, rec.TotalTokens)
	assert.Equal(t, "wf-1", rec.WorkflowID)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "Go", rec.Input)
	assert.False(t, rec.CompletedAt.IsZero())

	nodes, err := store.ListNodeExecutions(context.Background(), "exec-1")
	require.NoError(t, err)
	statuses := map[string]domain.NodeStatus{}
	for _, n := range nodes {
		statuses[n.NodeID] = n.Status
	}
	assert.Equal(t, map[string]domain.NodeStatus{
		"in":    domain.NodeStatusCompleted,
		"check": domain.NodeStatusCompleted,
		"yes":   domain.NodeStatusCompleted,
		"no":    domain.NodeStatusSkipped,
		"out":   domain.NodeStatusCompleted,
	}, statuses)

	for _, n := range nodes {
		if n.NodeID == "yes" {
			assert.Equal(t, "Go", n.Input)
			assert.Equal(t, domain.NodeTypeLLMCall, n.NodeType)
		}
	}
}

func TestEngine_AuditCreateFailureAborts(t *testing.T) {
	store := newRecordingStore()
	store.createErr = errBoom
	model := &stubModel{reply: "unused"}
	engine := runtime.NewEngine(runtime.WithAuditStore(store), runtime.WithModelClient(model))

	res := engine.Execute(context.Background(), branching(t), "go", identity)

	assert.Equal(t, domain.RunStatusFailed, res.Status)
	assert.Contains(t, res.ErrorMessage, "failed to create execution record")
	assert.Empty(t, res.NodeResults)
	assert.Empty(t, model.requests, "no node may run without an execution record")
}

func TestEngine_AuditWritesAreBestEffort(t *testing.T) {
	store := newRecordingStore()
	store.insertErr = errBoom
	store.updateErr = errBoom
	engine := runtime.NewEngine(
		runtime.WithAuditStore(store),
		runtime.WithModelClient(&stubModel{reply: "fine"}),
	)

	res := engine.Execute(context.Background(), branching(t), "go", identity)

	assert.Equal(t, domain.RunStatusCompleted, res.Status)
	assert.Equal(t, "fine", res.Output)
	assert.Empty(t, store.nodes)
}

func TestEngine_AuditRecordsFailure(t *testing.T) {
	store := newRecordingStore()
	engine := runtime.NewEngine(
		runtime.WithAuditStore(store),
		runtime.WithModelClient(&stubModel{err: errBoom}),
	)

	res := engine.Execute(context.Background(), branching(t), "go", identity)
	require.Equal(t, domain.RunStatusFailed, res.Status)

	rec, err := store.GetExecution(context.Background(), res.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, rec.Status)
	assert.Equal(t, res.ErrorMessage, rec.ErrorMessage)
	assert.Empty(t, rec.Output)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var runEvents []domain.EventType
	var started []string
	var finished []string
	var finishStatus = map[string]domain.NodeStatus{}
	var final *domain.WorkflowExecutionResult

	hooks := domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			runEvents = append(runEvents, e.Type)
			assert.Equal(t, 5, e.NodeCount)
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			runEvents = append(runEvents, e.Type)
			final = e.Result
		},
		OnNodeStart: func(_ context.Context, e *domain.NodeEvent) {
			assert.Equal(t, domain.NodeStatusRunning, e.Status)
			assert.Nil(t, e.Result)
			started = append(started, e.NodeID)
		},
		OnNodeFinish: func(_ context.Context, e *domain.NodeEvent) {
			finished = append(finished, e.NodeID)
			finishStatus[e.NodeID] = e.Status
		},
	}

	engine := runtime.NewEngine(
		runtime.WithLifecycleHooks(hooks),
		runtime.WithModelClient(&stubModel{reply: "ok"}),
	)
	res := engine.Execute(context.Background(), branching(t), "rust", identity)
	require.Equal(t, domain.RunStatusCompleted, res.Status)

	assert.Equal(t, []domain.EventType{domain.EventRunStart, domain.EventRunFinish}, runEvents)
	assert.Equal(t, []string{"in", "check", "no"}, started)
	assert.ElementsMatch(t, []string{"in", "check", "yes", "no", "out"}, finished)
	assert.Equal(t, domain.NodeStatusSkipped, finishStatus["yes"])
	assert.Equal(t, domain.NodeStatusSkipped, finishStatus["out"])
	assert.Equal(t, "nope", res.Output)
	assert.Same(t, res, final)
}
