package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rmax-ai/locklord/pkg/client"
)

// Server adapts locklord-d to the Model Context Protocol, so an LLM
// agent can drive the deadlock engine as a set of tools.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"locklord",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	// locklord://status
	s.mcpServer.AddResource(mcp.NewResource(
		"locklord://status",
		"System Status",
		mcp.WithResourceDescription("Live SAFE/DEADLOCK verdict with entity and incident counters"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadStatus)

	// locklord://graph
	s.mcpServer.AddResource(mcp.NewResource(
		"locklord://graph",
		"Allocation Graph",
		mcp.WithResourceDescription("The derived resource-allocation graph: nodes plus allocation and request edges"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadGraph)

	// locklord://log
	s.mcpServer.AddResource(mcp.NewResource(
		"locklord://log",
		"Activity Log",
		mcp.WithResourceDescription("Recent engine activity, oldest first"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadLog)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"add_process",
		mcp.WithDescription("Register a process. Priority decides who is terminated first during recovery."),
		mcp.WithString("process_id", mcp.Required(), mcp.Description("Unique process identifier (e.g. 'P1')")),
		mcp.WithString("priority", mcp.Description("low, medium or high (default medium)")),
	), s.handleAddProcess)

	s.mcpServer.AddTool(mcp.NewTool(
		"add_resource",
		mcp.WithDescription("Register a unit-capacity resource."),
		mcp.WithString("resource_id", mcp.Required(), mcp.Description("Unique resource identifier (e.g. 'R1')")),
		mcp.WithString("resource_type", mcp.Description("Free-form type label (default CPU)")),
	), s.handleAddResource)

	s.mcpServer.AddTool(mcp.NewTool(
		"request_resource",
		mcp.WithDescription("Request a resource for a process. The engine allocates, queues, or denies the request if it would close a deadlock cycle."),
		mcp.WithString("process_id", mcp.Required(), mcp.Description("The requesting process")),
		mcp.WithString("resource_id", mcp.Required(), mcp.Description("The resource to acquire")),
	), s.handleRequestResource)

	s.mcpServer.AddTool(mcp.NewTool(
		"release_resource",
		mcp.WithDescription("Release a held resource. The first waiting process, if any, is granted it immediately."),
		mcp.WithString("process_id", mcp.Required(), mcp.Description("The holding process")),
		mcp.WithString("resource_id", mcp.Required(), mcp.Description("The resource to release")),
	), s.handleReleaseResource)

	s.mcpServer.AddTool(mcp.NewTool(
		"detect_deadlock",
		mcp.WithDescription("Check the committed allocation graph for a deadlock cycle."),
	), s.handleDetect)

	s.mcpServer.AddTool(mcp.NewTool(
		"predict_risks",
		mcp.WithDescription("List process/resource pairs that are one request away from deadlock."),
	), s.handlePredict)

	s.mcpServer.AddTool(mcp.NewTool(
		"recover_deadlock",
		mcp.WithDescription("Break the current deadlock by terminating the lowest-priority process on the cycle."),
	), s.handleRecover)

	s.mcpServer.AddTool(mcp.NewTool(
		"reset_system",
		mcp.WithDescription("Remove all processes and resources and clear counters."),
	), s.handleReset)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"locklord-aware",
		mcp.WithPromptDescription("Provides context about locklord concepts (processes, resources, cycles, recovery)"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadStatus(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status, err := s.apiClient.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}
	return jsonResource(request.Params.URI, status)
}

func (s *Server) handleReadGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	graph, err := s.apiClient.Graph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graph: %w", err)
	}
	return jsonResource(request.Params.URI, graph)
}

func (s *Server) handleReadLog(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := s.apiClient.Log(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch log: %w", err)
	}
	return jsonResource(request.Params.URI, entries)
}

func jsonResource(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleAddProcess(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	processID := mcp.ParseString(request, "process_id", "")
	priority := mcp.ParseString(request, "priority", "")

	if err := s.apiClient.AddProcess(ctx, processID, priority); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Process %s registered", processID)), nil
}

func (s *Server) handleAddResource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resourceID := mcp.ParseString(request, "resource_id", "")
	resourceType := mcp.ParseString(request, "resource_type", "")

	if err := s.apiClient.AddResource(ctx, resourceID, resourceType); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Resource %s registered", resourceID)), nil
}

func (s *Server) handleRequestResource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	processID := mcp.ParseString(request, "process_id", "")
	resourceID := mcp.ParseString(request, "resource_id", "")

	result, err := s.apiClient.Request(ctx, processID, resourceID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	switch {
	case result.Allocated:
		return mcp.NewToolResultText(fmt.Sprintf("Allocated: %s now holds %s", processID, resourceID)), nil
	case result.Waiting:
		return mcp.NewToolResultText(fmt.Sprintf("Waiting: %s queued behind holder %s", processID, result.Holder)), nil
	case result.Prevented:
		return mcp.NewToolResultText(fmt.Sprintf(
			"Denied: granting would cause a deadlock (%s)", strings.Join(result.Cycle, " -> "))), nil
	default:
		return mcp.NewToolResultText(result.Message), nil
	}
}

func (s *Server) handleReleaseResource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	processID := mcp.ParseString(request, "process_id", "")
	resourceID := mcp.ParseString(request, "resource_id", "")

	if err := s.apiClient.Release(ctx, processID, resourceID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Released: %s gave back %s", processID, resourceID)), nil
}

func (s *Server) handleDetect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.apiClient.Detect(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	if !result.Deadlock {
		return mcp.NewToolResultText("No deadlock: the allocation graph is acyclic"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("DEADLOCK: %s", strings.Join(result.Cycle, " -> "))), nil
}

func (s *Server) handlePredict(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.apiClient.Predict(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	if len(result.Predictions) == 0 {
		return mcp.NewToolResultText("No risky request pairs found"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Risk level: %s\n", result.RiskLevel)
	for _, p := range result.Predictions {
		fmt.Fprintf(&b, "- if %s requests %s: %s risk\n", p.Process, p.Resource, p.Risk)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleRecover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.apiClient.Recover(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Recovered: terminated %s, released %s", result.Victim, strings.Join(result.Released, ", "))), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.apiClient.Reset(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText("System reset: all processes and resources removed"), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "locklord-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are interacting with locklord, a deadlock management engine.

Concepts:
- Process: An actor that acquires resources (e.g. 'P1'). Has a priority: low, medium, high.
- Resource: A unit-capacity asset (e.g. 'R1'). Held by at most one process; others queue FCFS.
- Allocation graph: resource -> holder edges plus process -> resource wait edges. A cycle means deadlock.
- Avoidance: a request that would close a cycle is denied up front, never granted.
- Recovery: terminates the lowest-priority process on the cycle and hands its resources to waiters.

Use 'request_resource' to acquire and 'release_resource' when done.
If a request is denied, the denial is final for the current graph; release something or wait.
Use 'detect_deadlock' and 'recover_deadlock' to inspect and repair stuck states.
`

	return mcp.NewGetPromptResult(
		"locklord-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
