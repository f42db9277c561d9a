package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/canelink/internal/transport"
)

// DeviceStatus returns a handler reporting the link state and counters.
func DeviceStatus(m *transport.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		state := m.State()
		stats := m.Stats()

		name := m.DeviceName()
		if name == "" {
			name = "(not started)"
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %s: %s\n", stateIcon(state), name, state)
		fmt.Fprintf(&sb, "Sent: %d | Dropped: %d | Failed: %d\n", stats.Sent, stats.Dropped, stats.Failed)
		fmt.Fprintf(&sb, "Listeners: %d\n", m.Hub().Len())

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func stateIcon(s transport.State) string {
	switch s {
	case transport.StateConnected:
		return "🟢"
	case transport.StateDisconnected:
		return "🟡"
	default:
		return "⚪"
	}
}
