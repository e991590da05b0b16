// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	wasdoingmcp "github.com/gorewood/wasdoing/internal/mcp"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run wasdoing as a Model Context Protocol (MCP) server over stdio.

This exposes journal operations as MCP tools that any MCP-capable agent
environment can use (Claude Code, Cursor, Windsurf, Gemini CLI, etc),
so agents can record what they did as they work.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "wasdoing": {
        "command": "wasdoing",
        "args": ["serve"]
      }
    }
  }

Available tools: log, query, contexts, status`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := newPrinter(cmd)
			reg, err := openRegistry()
			if err != nil {
				printer.Error(err)
				return err
			}
			// Stdout carries the MCP protocol, so the startup hint goes
			// to stderr.
			printer.Stderr("wasdoing MCP server listening on stdio\n")
			server := wasdoingmcp.NewServer(buildVersion(), reg)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
