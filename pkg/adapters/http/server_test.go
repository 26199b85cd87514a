package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/runtime"
	arborhttp "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/runner"
)

const greeting = `{
	"id": "greeting",
	"nodes": [
		{"id": "in", "type": "input"},
		{"id": "shout", "type": "dataTransform", "data": {"transformType": "template", "config": "Hello {{input}}"}},
		{"id": "out", "type": "output"}
	],
	"edges": [
		{"id": "e1", "source": "in", "target": "shout"},
		{"id": "e2", "source": "shout", "target": "out"}
	]
}`

type fixture struct {
	handler http.Handler
	spec    *openapi3.T
	store   *memory.Store
}

func newFixture(t *testing.T, opts ...arborhttp.Option) *fixture {
	t.Helper()

	store := memory.NewStore()
	tracker := observability.NewTracker(0)
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	b := dsl.New("stored")
	b.Add("in").Input().Go("out")
	b.Add("out").Output("stored: {{input}}")
	loader, err := memory.NewLoader(b.Definition())
	require.NoError(t, err)

	engine := runtime.NewEngine(
		runtime.WithAuditStore(store),
		runtime.WithLifecycleHooks(domain.ChainHooks(tracker.Hooks(), metrics.Hooks())),
	)

	all := append([]arborhttp.Option{
		arborhttp.WithLoader(loader),
		arborhttp.WithAuditStore(store),
		arborhttp.WithTracker(tracker),
		arborhttp.WithGatherer(reg),
	}, opts...)
	h, err := arborhttp.NewHandler(context.Background(), engine, all...)
	require.NoError(t, err)

	spec, err := arborhttp.LoadSpec(context.Background())
	require.NoError(t, err)
	return &fixture{handler: h, spec: spec, store: store}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

// conforms decodes the response and checks it against a component schema.
func (f *fixture) conforms(t *testing.T, rr *httptest.ResponseRecorder, schema string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	require.NoError(t, f.spec.Components.Schemas[schema].Value.VisitJSON(v), rr.Body.String())
	return v
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	body := f.conforms(t, rr, "Health")
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ServesOpenAPI(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/openapi.yaml", "")
	require.Equal(t, http.StatusOK, rr.Code)

	doc, err := openapi3.NewLoader().LoadFromData(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Arbor API", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/v1/executions"))
}

func TestServer_ExecuteInlineWorkflow(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/executions", `{"workflow": `+greeting+`, "input": "Ada", "userId": "u-1"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := f.conforms(t, rr, "ExecutionResult")
	assert.Equal(t, "completed", res["status"])
	assert.Equal(t, "Hello Ada", res["output"])

	id, _ := res["executionId"].(string)
	require.NotEmpty(t, id)

	rr = f.do(t, http.MethodGet, "/v1/executions/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	detail := f.conforms(t, rr, "ExecutionDetail")
	exec := detail["execution"].(map[string]any)
	assert.Equal(t, "greeting", exec["workflowId"])
	assert.Equal(t, "u-1", exec["userId"])
	assert.Len(t, detail["nodes"], 3)

	rr = f.do(t, http.MethodGet, "/v1/executions/"+id+"/progress", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	progress := f.conforms(t, rr, "Progress")
	assert.Equal(t, "completed", progress["status"])
	assert.EqualValues(t, 3, progress["nodeCount"])
}

func TestServer_ExecuteStoredWorkflow(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/executions", `{"workflowId": "stored", "input": "x"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := f.conforms(t, rr, "ExecutionResult")
	assert.Equal(t, "stored: x", res["output"])

	rr = f.do(t, http.MethodPost, "/v1/executions", `{"workflowId": "missing", "input": "x"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	f.conforms(t, rr, "Error")
}

func TestServer_ExecuteReportsInvalidWorkflowInResult(t *testing.T) {
	f := newFixture(t)
	doc := `{"id": "broken", "nodes": [{"id": "in", "type": "input"}], "edges": []}`

	rr := f.do(t, http.MethodPost, "/v1/executions", `{"workflow": `+doc+`, "input": "x"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	res := f.conforms(t, rr, "ExecutionResult")
	assert.Equal(t, "failed", res["status"])
	assert.Contains(t, res["error"], "Validation failed: ")
}

func TestServer_ExecuteRejectsBadRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"input": `},
		{"missing input", `{"workflowId": "stored"}`},
		{"wrong input type", `{"workflowId": "stored", "input": 42}`},
		{"no workflow", `{"input": "x"}`},
		{"both workflow forms", `{"workflow": ` + greeting + `, "workflowId": "stored", "input": "x"}`},
		{"unknown node type", `{"workflow": {"nodes": [{"id": "a", "type": "teleport"}]}, "input": "x"}`},
		{"oversized input", `{"workflowId": "stored", "input": "` + strings.Repeat("a", runner.DefaultMaxInputSize+1) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/v1/executions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}

func TestServer_ValidateWorkflow(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/workflows/validate", `{"workflow": `+greeting+`}`)
	require.Equal(t, http.StatusOK, rr.Code)
	report := f.conforms(t, rr, "ValidationReport")
	assert.Equal(t, true, report["valid"])
	assert.Empty(t, report["problems"])

	rr = f.do(t, http.MethodPost, "/v1/workflows/validate", `{"workflow": {"nodes": [{"id": "in", "type": "input"}]}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	report = f.conforms(t, rr, "ValidationReport")
	assert.Equal(t, false, report["valid"])
	assert.Contains(t, report["problems"], "workflow must have at least one Output node")

	rr = f.do(t, http.MethodPost, "/v1/workflows/validate", `{"nodes": []}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_ListWorkflows(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/v1/workflows", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := f.conforms(t, rr, "WorkflowList")
	assert.Equal(t, []any{"stored"}, body["workflows"])
}

func TestServer_UnknownExecution(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/v1/executions/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	f.conforms(t, rr, "Error")

	rr = f.do(t, http.MethodGet, "/v1/executions/nope/progress", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_MissingCollaborators(t *testing.T) {
	h, err := arborhttp.NewHandler(context.Background(), runtime.NewEngine())
	require.NoError(t, err)

	for _, path := range []string{"/v1/workflows", "/v1/executions/x", "/v1/executions/x/progress"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotImplemented, rr.Code, path)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	_, err = arborhttp.NewHandler(context.Background(), nil)
	assert.Error(t, err)
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/v1/executions", `{"workflowId": "stored", "input": "x"}`)

	rr := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "arbor_runs_total")
	assert.Contains(t, rr.Body.String(), "arbor_node_executions_total")
}

func TestServer_CORSPreflight(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodOptions, "/v1/executions", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
