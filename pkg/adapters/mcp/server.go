// Package mcp exposes workflow validation and execution as Model Context
// Protocol tools, so AI agents can run Arbor workflows.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/validator"
	"github.com/aretw0/arbor/internal/xjson"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/runner"
)

const (
	workflowsURI      = "arbor://workflows"
	workflowURIPrefix = workflowsURI + "/"
)

// ValidationReport is the structured result of validate_workflow.
type ValidationReport struct {
	Valid    bool     `json:"valid" jsonschema_description:"True when the workflow can be executed"`
	Problems []string `json:"problems" jsonschema_description:"Every structural problem found"`
}

// ExecutionDetail is the structured result of get_execution.
type ExecutionDetail struct {
	Execution *domain.ExecutionRecord      `json:"execution" jsonschema_description:"The run summary"`
	Nodes     []domain.NodeExecutionRecord `json:"nodes" jsonschema_description:"Per-node traces in execution order"`
}

// Server wraps an executor and exposes it as an MCP Server. The loader and
// the audit store are optional.
type Server struct {
	executor  ports.Executor
	loader    ports.DefinitionLoader
	store     ports.AuditStore
	parser    *compiler.Parser
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLoader enables workflow_id arguments and the workflow resources.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(s *Server) { s.loader = l }
}

// WithAuditStore enables the get_execution tool.
func WithAuditStore(st ports.AuditStore) Option {
	return func(s *Server) { s.store = st }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP Server instance.
func NewServer(executor ports.Executor, opts ...Option) *Server {
	s := &Server{
		executor:  executor,
		parser:    compiler.NewParser(),
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("validate_workflow",
		mcp.WithDescription("Check a workflow definition (JSON or YAML) without running it."),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("The workflow document")),
		mcp.WithOutputSchema[ValidationReport](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("execute_workflow",
		mcp.WithDescription("Run a workflow on one input and return every node result."),
		mcp.WithString("input", mcp.Required(), mcp.Description("The run input text")),
		mcp.WithString("workflow", mcp.Description("Inline workflow document (JSON or YAML)")),
		mcp.WithString("workflow_id", mcp.Description("ID of a stored workflow")),
		mcp.WithString("user_id", mcp.Description("Owner whose documents RAG queries search")),
		mcp.WithOutputSchema[domain.WorkflowExecutionResult](),
	), mcp.NewStructuredToolHandler(s.handleExecute))

	if s.loader != nil {
		s.mcpServer.AddTool(mcp.NewTool("list_workflows",
			mcp.WithDescription("List the IDs of stored workflows."),
		), s.handleList)
	}

	if s.store != nil {
		s.mcpServer.AddTool(mcp.NewTool("get_execution",
			mcp.WithDescription("Read the audit trail of a past run."),
			mcp.WithString("execution_id", mcp.Required(), mcp.Description("Execution ID returned by execute_workflow")),
			mcp.WithOutputSchema[ExecutionDetail](),
		), mcp.NewStructuredToolHandler(s.handleGetExecution))
	}
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidationReport, error) {
	doc, _ := args["workflow"].(string)

	report := ValidationReport{Problems: []string{}}
	def, err := s.parseDocument(doc)
	if err != nil {
		report.Problems = append(report.Problems, err.Error())
	} else {
		report.Problems = append(report.Problems, validator.Validate(def)...)
	}
	report.Valid = len(report.Problems) == 0
	return report, nil
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.WorkflowExecutionResult, error) {
	input, _ := args["input"].(string)
	doc, _ := args["workflow"].(string)
	workflowID, _ := args["workflow_id"].(string)
	userID, _ := args["user_id"].(string)

	clean, err := runner.SanitizeInput(input)
	if err != nil {
		s.logger.Warn("MCP execute: input rejected", "err", err, "size", len(input))
		return domain.WorkflowExecutionResult{}, fmt.Errorf("input rejected: %w", err)
	}

	def, err := s.resolve(ctx, doc, workflowID)
	if err != nil {
		return domain.WorkflowExecutionResult{}, err
	}

	res := s.executor.Execute(ctx, def, clean, domain.RunIdentity{WorkflowID: def.ID, UserID: userID})
	s.logger.Info("MCP execute finished", "workflow_id", def.ID, "execution_id", res.ExecutionID, "status", res.Status)
	return *res, nil
}

func (s *Server) resolve(ctx context.Context, doc, workflowID string) (*domain.WorkflowDefinition, error) {
	switch {
	case doc != "" && workflowID != "":
		return nil, errors.New("pass either workflow or workflow_id, not both")
	case doc != "":
		def, err := s.parseDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("parse workflow: %w", err)
		}
		return def, nil
	case workflowID != "":
		if s.loader == nil {
			return nil, errors.New("no workflow store is configured")
		}
		return s.loader.Get(ctx, workflowID)
	default:
		return nil, errors.New("workflow or workflow_id is required")
	}
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.loader.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if ids == nil {
		ids = []string{}
	}
	data, _ := xjson.Marshal(ids)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetExecution(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ExecutionDetail, error) {
	id, _ := args["execution_id"].(string)
	rec, err := s.store.GetExecution(ctx, id)
	if err != nil {
		return ExecutionDetail{}, err
	}
	nodes, err := s.store.ListNodeExecutions(ctx, id)
	if err != nil {
		return ExecutionDetail{}, err
	}
	if nodes == nil {
		nodes = []domain.NodeExecutionRecord{}
	}
	return ExecutionDetail{Execution: rec, Nodes: nodes}, nil
}

func (s *Server) registerResources() {
	if s.loader == nil {
		return
	}

	// EXPOSE: arbor://workflows
	s.mcpServer.AddResource(mcp.NewResource(workflowsURI, "Stored workflows",
		mcp.WithResourceDescription("IDs of every stored workflow"),
		mcp.WithMIMEType("application/json"),
	), s.readWorkflowList)

	// EXPOSE: arbor://workflows/{id}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(workflowsURI+"/{id}", "Workflow definition",
		mcp.WithTemplateDescription("A stored workflow in its authored JSON form"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readWorkflow)
}

func (s *Server) readWorkflowList(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.loader.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	data, _ := xjson.Marshal(ids)
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      workflowsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) readWorkflow(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	id := strings.TrimPrefix(uri, workflowURIPrefix)
	if id == "" || id == uri {
		return nil, fmt.Errorf("invalid workflow uri %q", uri)
	}
	def, err := s.loader.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := compiler.MarshalJSON(def)
	if err != nil {
		return nil, fmt.Errorf("encode workflow %q: %w", id, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) parseDocument(doc string) (*domain.WorkflowDefinition, error) {
	data, err := runner.SanitizeDefinition([]byte(doc))
	if err != nil {
		return nil, err
	}
	return s.parser.Parse(data)
}
