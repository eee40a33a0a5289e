package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
)

// This file contains server startup methods that start blocking servers.

// ServeHTTP serves the MCP server with HTTP/SSE transport on addr until
// Shutdown is called. It returns http.ErrServerClosed after Shutdown.
func (ms *MCPServer) ServeHTTP(addr string) error {
	sse := server.NewSSEServer(ms.server,
		server.WithBaseURL("http://"+addr),
		server.WithStaticBasePath("/mcp"),
	)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           sse,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ms.mu.Lock()
	if ms.closed {
		ms.mu.Unlock()
		return http.ErrServerClosed
	}
	ms.httpServer = httpServer
	ms.mu.Unlock()

	ms.logger.Info("Starting MCP server with HTTP/SSE transport", "address", addr, "base_path", "/mcp")
	return httpServer.ListenAndServe()
}

// Shutdown stops the HTTP/SSE transport
func (ms *MCPServer) Shutdown(ctx context.Context) error {
	ms.mu.Lock()
	ms.closed = true
	httpServer := ms.httpServer
	ms.mu.Unlock()

	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}
