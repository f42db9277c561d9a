package handlers

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/canelink/internal/transport"
)

// SendMessage returns a handler that pushes a line through the manager.
func SendMessage(m *transport.Manager) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		raw, _ := args["message"].(string)
		message, err := transport.CleanMessage(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		sent, err := m.TrySend(message)
		switch {
		case err != nil && !sent:
			return mcp.NewToolResultError(fmt.Sprintf("Send failed: %s", err)), nil
		case err != nil:
			// The phone has the line; retrying would send it twice.
			return mcp.NewToolResultText(fmt.Sprintf("✅ Sent to %s, but a listener failed: %s", m.DeviceName(), err)), nil
		case !sent:
			return mcp.NewToolResultText("No phone linked; message dropped."), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("✅ Sent to %s and %d listener(s)", m.DeviceName(), m.Hub().Len())), nil
	}
}
