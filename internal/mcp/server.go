package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/canelink/internal/mcp/handlers"
	"github.com/btouchard/canelink/internal/telemetry"
	"github.com/btouchard/canelink/internal/transport"
)

// Deps holds shared dependencies injected into MCP handlers.
type Deps struct {
	Manager *transport.Manager
	History handlers.MessageLister // nil when history is disabled
	Tracker *telemetry.Tracker
	Version string
}

// NewServer creates and configures the MCP server with all tools registered.
func NewServer(deps *Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"canelink",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	registerTools(s, deps)

	return s
}
