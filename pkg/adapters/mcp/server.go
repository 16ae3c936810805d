package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vfxbridge"
	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ActionsURI = "vfx://actions"
	RecipesURI = "vfx://recipes"
)

// Executor runs actions. *vfxbridge.Bridge implements it.
type Executor = ports.ActionEngine

// Server exposes an Executor as an MCP server.
type Server struct {
	exec      Executor
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(exec Executor, opts ...Option) *Server {
	s := &Server{
		exec:      exec,
		mcpServer: server.NewMCPServer("vfxbridge-mcp", strings.TrimSpace(vfxbridge.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	baseURL := "http://" + ln.Addr().String()

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))
	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", ln.Addr().String())
		serverErrors <- httpServer.Serve(ln)
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

		s.logger.Info("MCP server shutting down")
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("vfx_graph",
		mcp.WithDescription("Run one VFX graph action (add_node, connect_nodes, get_graph_info, ...). "+
			"Read vfx://actions for the list of actions."),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name or alias")),
		mcp.WithString("params", mcp.Description("JSON object with the action parameters, including \"path\"")),
	), s.handleGraph)

	s.mcpServer.AddTool(mcp.NewTool("vfx_batch",
		mcp.WithDescription("Run a batch of operations against one graph asset and save it once. "+
			"Operations may bind ids with \"ref\" and reference them as \"$ref\"."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Graph asset path")),
		mcp.WithString("operations", mcp.Required(), mcp.Description("JSON array of operation objects")),
	), s.handleBatch)

	s.mcpServer.AddTool(mcp.NewTool("vfx_recipe",
		mcp.WithDescription("Build a complete effect from a named recipe. Read vfx://recipes for the list."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Graph asset path")),
		mcp.WithString("recipe", mcp.Required(), mcp.Description("Recipe name")),
		mcp.WithString("args", mcp.Description("JSON object with recipe arguments (capacity, bufferName, ...)")),
	), s.handleRecipe)
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	action, _ := args["action"].(string)

	params, err := decodeObject(args["params"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid params: %v", err)), nil
	}
	return s.run(ctx, action, params), nil
}

func (s *Server) handleBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var ops any = args["operations"]
	if raw, ok := ops.(string); ok {
		if err := json.Unmarshal([]byte(raw), &ops); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid operations: %v", err)), nil
		}
	}
	return s.run(ctx, "batch_execute", map[string]any{"path": args["path"], "operations": ops}), nil
}

func (s *Server) handleRecipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	params, err := decodeObject(args["args"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid args: %v", err)), nil
	}
	params["path"] = args["path"]
	params["recipe"] = args["recipe"]
	return s.run(ctx, "create_from_recipe", params), nil
}

// run executes action and returns its envelope as JSON text. Failed
// envelopes are flagged as tool errors.
func (s *Server) run(ctx context.Context, action string, params map[string]any) *mcp.CallToolResult {
	res := s.exec.Execute(ctx, action, params)
	payload, err := json.Marshal(res)
	if err != nil {
		s.logger.Error("MCP: result encode failed", "action", action, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	out := mcp.NewToolResultText(string(payload))
	out.IsError = !res.Success
	return out
}

// decodeObject accepts a JSON object given either as a string or as an
// already decoded map. Absent values decode to an empty map.
func decodeObject(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return map[string]any{}, nil
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(t), &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = map[string]any{}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ActionsURI, "Available actions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(ActionsURI, map[string]any{
			"actions": s.exec.Actions(),
			"aliases": s.exec.Aliases(),
		})
	})

	s.mcpServer.AddResource(mcp.NewResource(RecipesURI, "Available recipes",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		res := s.exec.Execute(ctx, "list_recipes", nil)
		if !res.Success {
			return nil, fmt.Errorf("failed to list recipes: %s", res.Message)
		}
		return jsonResource(RecipesURI, res.Data)
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
