package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/arborworks/arbor"
	"github.com/arborworks/arbor/internal/presentation/graph"
	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/schema"
)

// RunResponse is the structured result of the run_workflow tool.
type RunResponse struct {
	RunID  string         `json:"run_id" jsonschema_description:"Identifier of the run"`
	Status string         `json:"status" jsonschema_description:"completed or failed"`
	Output map[string]any `json:"output,omitempty" jsonschema_description:"The output namespace of the run"`
	Error  string         `json:"error,omitempty" jsonschema_description:"Failure reason, when status is failed"`
}

// ValidateResponse is the structured result of the validate_workflow tool.
type ValidateResponse struct {
	Valid    bool     `json:"valid" jsonschema_description:"Whether the definition is sound"`
	Problems []string `json:"problems,omitempty" jsonschema_description:"Configuration problems, when invalid"`
}

// Engine defines the interface required by the MCP server.
type Engine interface {
	Execute(ctx context.Context, name string, params map[string]any, cfg arbor.RunConfig) (*arbor.Run, error)
	Validate(ctx context.Context, name string) error
	Definitions(ctx context.Context) ([]string, error)
	Document(ctx context.Context, name string) (*schema.Document, error)
}

// Server wraps the arbor Engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: run_workflow
	runTool := mcp.NewTool("run_workflow",
		mcp.WithDescription("Execute a named workflow with parameters and return its output."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("Name of the workflow definition")),
		mcp.WithString("params", mcp.Description("JSON object of run parameters (optional)")),
		mcp.WithBoolean("await_after_nodes", mcp.Description("Wait for background nodes before returning (optional)")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunWorkflow))

	// TOOL: validate_workflow
	validateTool := mcp.NewTool("validate_workflow",
		mcp.WithDescription("Statically validate a workflow definition without running it."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("Name of the workflow definition")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidateWorkflow))

	// TOOL: list_definitions
	s.mcpServer.AddTool(mcp.NewTool("list_definitions",
		mcp.WithDescription("List the available workflow definitions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := s.engine.Definitions(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(names)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get a Mermaid flowchart of a workflow definition."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("Name of the workflow definition")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := request.GetString("definition", "")
		doc, err := s.engine.Document(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		return mcp.NewToolResultText(graph.GenerateMermaid(doc.Nodes, nil)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleRunWorkflow(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	name, _ := args["definition"].(string)
	await, _ := args["await_after_nodes"].(bool)

	params := map[string]any{}
	if paramsStr, ok := args["params"].(string); ok && paramsStr != "" {
		if err := json.Unmarshal([]byte(paramsStr), &params); err != nil {
			return RunResponse{}, fmt.Errorf("params must be a JSON object: %w", err)
		}
	}

	clean, err := arbor.SanitizeParams(params)
	if err != nil {
		slog.Warn("MCP run_workflow: Params rejected", "error", err)
		return RunResponse{}, fmt.Errorf("params rejected: %w", err)
	}

	run, err := s.engine.Execute(ctx, name, clean, arbor.RunConfig{
		ExecuteAfterNodes: true,
		AwaitAfterNodes:   await,
	})
	if err != nil {
		var nodeErr *domain.NodeExecutionError
		if run != nil && errors.As(err, &nodeErr) {
			record := run.Record()
			return RunResponse{
				RunID:  run.ID,
				Status: string(record.Status),
				Error:  record.Error,
			}, nil
		}
		return RunResponse{}, fmt.Errorf("run failed: %w", err)
	}

	return RunResponse{
		RunID:  run.ID,
		Status: string(domain.RunStatusCompleted),
		Output: run.Output(),
	}, nil
}

func (s *Server) handleValidateWorkflow(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	name, _ := args["definition"].(string)

	err := s.engine.Validate(ctx, name)
	if err == nil {
		return ValidateResponse{Valid: true}, nil
	}

	var cfg *domain.ConfigurationError
	if errors.As(err, &cfg) {
		return ValidateResponse{Valid: false, Problems: cfg.Problems}, nil
	}
	return ValidateResponse{}, fmt.Errorf("validate failed: %w", err)
}

func (s *Server) registerResources() {
	// EXPOSE: arbor://definitions
	s.mcpServer.AddResource(mcp.NewResource("arbor://definitions", "Available Workflow Definitions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.engine.Definitions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list definitions: %w", err)
		}
		jsonBytes, _ := json.Marshal(names)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "arbor://definitions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
