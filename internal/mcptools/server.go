// Package mcptools exposes the scoring service as MCP tools for LLMs.
package mcptools

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all scoring tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("glucorisk", "1.0.0")
	client := NewClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolScorePatient, h.HandleScorePatient)
	s.AddTool(ToolGetDashboard, h.HandleGetDashboard)
	s.AddTool(ToolGetRecord, h.HandleGetRecord)

	return s
}
