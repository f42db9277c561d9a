package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/canelink/internal/store"
	"github.com/btouchard/canelink/internal/telemetry"
)

const maxListLimit = 200

// MessageLister reads the message history.
// Defined consumer-side per Go convention.
type MessageLister interface {
	ListMessages(f store.MessageFilter) ([]store.MessageRecord, error)
}

// ListMessages returns a handler that lists history with optional filters.
func ListMessages(history MessageLister) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		filter := store.MessageFilter{
			Limit: 20,
		}

		if zone, ok := args["zone"].(string); ok && zone != "" {
			z, valid := telemetry.ParseZone(zone)
			if !valid {
				return mcp.NewToolResultError(fmt.Sprintf("unknown zone %q", zone)), nil
			}
			filter.Zone = string(z)
		}
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			filter.Limit = min(int(limit), maxListLimit)
		}

		msgs, err := history.ListMessages(filter)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Reading history failed: %s", err)), nil
		}

		if len(msgs) == 0 {
			return mcp.NewToolResultText("No messages found matching the given filters."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📋 Messages (%d found)\n\n", len(msgs))

		for _, m := range msgs {
			fmt.Fprintf(&sb, "%s [%s] %s", m.CreatedAt.UTC().Format(time.RFC3339), m.Device, m.Body)
			if m.Zone != "" {
				fmt.Fprintf(&sb, " %s", zoneIcon(telemetry.Zone(m.Zone)))
			}
			sb.WriteString("\n")
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
