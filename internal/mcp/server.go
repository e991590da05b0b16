// Package mcp provides a Model Context Protocol server for wasdoing.
// It exposes journal operations as MCP tools so any MCP-capable agent can
// record and query work entries.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/wasdoing/internal/registry"
)

// NewServer creates an MCP server with all wasdoing tools registered.
func NewServer(version string, reg *registry.Registry) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "wasdoing",
		Version: version,
	}, nil)
	registerTools(server, reg)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// writeAnnotations returns annotations for write tools (additive, not destructive).
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(false),
	}
}

// registerTools adds all wasdoing tools to the server.
func registerTools(server *mcp.Server, reg *registry.Registry) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "log",
		Description: "Append a history or summary entry to the work journal. History entries are granular notes of work performed; summary entries are higher-level rollups.",
		Annotations: writeAnnotations(),
	}, handleLog(reg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query",
		Description: "Retrieve journal entries with optional filters: kind (history/summary), tags, since/until timestamps, and a last-N limit.",
		Annotations: readOnlyAnnotations(),
	}, handleQuery(reg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "contexts",
		Description: "List known journal contexts, marking the active one.",
		Annotations: readOnlyAnnotations(),
	}, handleContexts(reg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Show journal state for a context: entry counts, store path, and output path.",
		Annotations: readOnlyAnnotations(),
	}, handleStatus(reg))
}
