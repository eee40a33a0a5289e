package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	// Tool names
	toolQueueStats       = "queue_stats"
	toolQueueClear       = "queue_clear"
	toolSuggestionConfig = "suggestion_config"

	surfaceMCP = "mcp"
)

// MCPConfig names the MCP server
type MCPConfig struct {
	Name    string
	Version string
}

// MCPServer wraps the mcp-go server with the admin tools
type MCPServer struct {
	server *server.MCPServer
	queue  Queue
	config ConfigSource
	audit  *AuditLogger
	logger *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

// NewMCPServer creates and configures the admin MCP server
func NewMCPServer(cfg MCPConfig, q Queue, source ConfigSource, audit *AuditLogger, logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	if audit == nil {
		audit = NewAuditLogger(logger)
	}

	mcpServer := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	ms := &MCPServer{
		server: mcpServer,
		queue:  q,
		config: source,
		audit:  audit,
		logger: logger,
	}
	ms.registerTools()

	return ms
}

// registerTools registers all MCP tools with handlers
func (ms *MCPServer) registerTools() {
	statsTool := mcp.NewTool(toolQueueStats,
		mcp.WithDescription("Report queue length, processing state and the waiting requests"),
	)
	ms.server.AddTool(statsTool, ms.handleQueueStats)

	clearTool := mcp.NewTool(toolQueueClear,
		mcp.WithDescription("Discard every waiting request. Affected clients are not notified."),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to clear the queue"),
		),
	)
	ms.server.AddTool(clearTool, ms.handleQueueClear)

	configTool := mcp.NewTool(toolSuggestionConfig,
		mcp.WithDescription("Report the suggestion service configuration"),
	)
	ms.server.AddTool(configTool, ms.handleSuggestionConfig)
}

func (ms *MCPServer) handleQueueStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ms.audit.LogCall(ctx, &AuditEntry{Surface: surfaceMCP, Operation: toolQueueStats})
	return jsonResult(ms.queue.Stats())
}

func (ms *MCPServer) handleQueueClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ms.audit.LogCall(ctx, &AuditEntry{Surface: surfaceMCP, Operation: toolQueueClear})

	confirm, err := request.RequireBool("confirm")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !confirm {
		ms.audit.LogResult(ctx, &AuditEntry{Surface: surfaceMCP, Operation: toolQueueClear, ErrorMsg: errConfirmNeeded})
		return mcp.NewToolResultError(errConfirmNeeded), nil
	}

	cleared := ms.queue.Clear()
	ms.audit.LogResult(ctx, &AuditEntry{Surface: surfaceMCP, Operation: toolQueueClear, Cleared: cleared})
	return mcp.NewToolResultText(fmt.Sprintf("Cleared %d request(s)", cleared)), nil
}

func (ms *MCPServer) handleSuggestionConfig(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ms.audit.LogCall(ctx, &AuditEntry{Surface: surfaceMCP, Operation: toolSuggestionConfig})
	return jsonResult(configView(ms.config.Info()))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
