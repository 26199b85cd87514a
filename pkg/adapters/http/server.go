// Package http exposes workflow validation, execution and audit lookups over
// a JSON API described by an embedded OpenAPI document.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/dto"
	"github.com/aretw0/arbor/internal/validator"
	"github.com/aretw0/arbor/internal/xjson"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/runner"
)

// maxBodySize bounds request bodies, which carry at most one workflow
// document and one run input. The input itself is capped again by the
// runner sanitizer.
func maxBodySize() int64 {
	return int64(runner.MaxDefinitionSize() + runner.MaxInputSize())
}

// Server serves the Arbor API. Only Executor is required; routes backed by a
// nil collaborator answer 501.
type Server struct {
	Executor ports.Executor
	Loader   ports.DefinitionLoader
	Store    ports.AuditStore
	Tracker  *observability.Tracker
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	parser  *compiler.Parser
	schemas schemaValidator
}

// Option configures a Server.
type Option func(*Server)

// WithLoader enables running stored workflows by ID.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(s *Server) { s.Loader = l }
}

// WithAuditStore enables execution lookups.
func WithAuditStore(st ports.AuditStore) Option {
	return func(s *Server) { s.Store = st }
}

// WithTracker enables live progress lookups.
func WithTracker(t *observability.Tracker) Option {
	return func(s *Server) { s.Tracker = t }
}

// WithGatherer exposes the given registry on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.Gatherer = g }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.Logger = l }
}

// NewHandler creates the HTTP handler for exec.
func NewHandler(ctx context.Context, exec ports.Executor, opts ...Option) (http.Handler, error) {
	if exec == nil {
		return nil, errors.New("http: executor is required")
	}
	doc, err := LoadSpec(ctx)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Executor: exec,
		Logger:   slog.Default(),
		parser:   compiler.NewParser(),
		schemas:  schemaValidator{doc: doc},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/workflows", s.ListWorkflows)
		r.Post("/workflows/validate", s.ValidateWorkflow)
		r.Post("/executions", s.ExecuteWorkflow)
		r.Get("/executions/{id}", s.GetExecution)
		r.Get("/executions/{id}/progress", s.GetExecutionProgress)
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Arbor API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type validateRequest struct {
	Workflow dto.WorkflowDocument `json:"workflow"`
}

type validationReport struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems"`
}

type executeRequest struct {
	Workflow   *dto.WorkflowDocument `json:"workflow,omitempty"`
	WorkflowID string                `json:"workflowId,omitempty"`
	Input      string                `json:"input"`
	UserID     string                `json:"userId,omitempty"`
}

type executionDetail struct {
	Execution *domain.ExecutionRecord      `json:"execution"`
	Nodes     []domain.NodeExecutionRecord `json:"nodes"`
}

// GetHealth reports liveness.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListWorkflows returns the IDs known to the loader.
func (s *Server) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	if s.Loader == nil {
		s.writeError(w, http.StatusNotImplemented, "no workflow loader configured")
		return
	}
	ids, err := s.Loader.List(r.Context())
	if err != nil {
		s.Logger.Error("list workflows failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list workflows")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"workflows": ids})
}

// ValidateWorkflow compiles and validates a definition without running it.
// Compile errors and structural problems both land in the report.
func (s *Server) ValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if !s.decode(w, r, "ValidateRequest", &body) {
		return
	}

	report := validationReport{Problems: []string{}}
	def, err := s.parser.Compile(body.Workflow)
	if err != nil {
		report.Problems = append(report.Problems, err.Error())
	} else {
		report.Problems = append(report.Problems, validator.Validate(def)...)
	}
	report.Valid = len(report.Problems) == 0
	s.writeJSON(w, http.StatusOK, report)
}

// ExecuteWorkflow runs an inline or stored workflow. A run that fails still
// answers 200 with the failure in its result.
func (s *Server) ExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	var body executeRequest
	if !s.decode(w, r, "ExecuteRequest", &body) {
		return
	}
	if (body.Workflow == nil) == (body.WorkflowID == "") {
		s.writeError(w, http.StatusBadRequest, "exactly one of workflow or workflowId is required")
		return
	}

	input, err := runner.SanitizeInput(body.Input)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	def, status, err := s.resolve(r.Context(), body)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}

	identity := domain.RunIdentity{WorkflowID: def.ID, UserID: body.UserID}
	result := s.Executor.Execute(r.Context(), def, input, identity)
	s.Logger.Info("workflow executed",
		"workflow_id", def.ID,
		"execution_id", result.ExecutionID,
		"status", result.Status,
		"request_id", middleware.GetReqID(r.Context()),
	)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) resolve(ctx context.Context, body executeRequest) (*domain.WorkflowDefinition, int, error) {
	if body.Workflow != nil {
		def, err := s.parser.Compile(*body.Workflow)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return def, 0, nil
	}
	if s.Loader == nil {
		return nil, http.StatusNotImplemented, errors.New("no workflow loader configured")
	}
	def, err := s.Loader.Get(ctx, body.WorkflowID)
	if errors.Is(err, domain.ErrDefinitionNotFound) {
		return nil, http.StatusNotFound, err
	}
	if err != nil {
		s.Logger.Error("load workflow failed", "workflow_id", body.WorkflowID, "err", err)
		return nil, http.StatusInternalServerError, errors.New("failed to load workflow")
	}
	return def, 0, nil
}

// GetExecution returns the audit record of a run with its node records.
func (s *Server) GetExecution(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		s.writeError(w, http.StatusNotImplemented, "no audit store configured")
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.Store.GetExecution(r.Context(), id)
	if errors.Is(err, domain.ErrExecutionNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.Logger.Error("get execution failed", "execution_id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read execution")
		return
	}
	nodes, err := s.Store.ListNodeExecutions(r.Context(), id)
	if err != nil {
		s.Logger.Error("list node executions failed", "execution_id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read execution")
		return
	}
	if nodes == nil {
		nodes = []domain.NodeExecutionRecord{}
	}
	s.writeJSON(w, http.StatusOK, executionDetail{Execution: rec, Nodes: nodes})
}

// GetExecutionProgress returns the live view of a recent run.
func (s *Server) GetExecutionProgress(w http.ResponseWriter, r *http.Request) {
	if s.Tracker == nil {
		s.writeError(w, http.StatusNotImplemented, "progress tracking is disabled")
		return
	}
	id := chi.URLParam(r, "id")
	p, ok := s.Tracker.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no progress for execution %q", id))
		return
	}
	if p.Nodes == nil {
		p.Nodes = []observability.NodeProgress{}
	}
	s.writeJSON(w, http.StatusOK, p)
}

// decode reads the body, checks it against the named schema and unmarshals
// it into out. It writes the error response itself and reports success.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema string, out any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize()))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	var raw any
	if err := xjson.Unmarshal(data, &raw); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.schemas.check(schema, raw); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := xjson.Unmarshal(data, out); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := xjson.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("write response failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
