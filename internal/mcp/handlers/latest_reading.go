package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/canelink/internal/telemetry"
)

// LatestReading returns a handler reporting the tracker snapshot.
func LatestReading(tr *telemetry.Tracker) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap := tr.Latest()
		if snap.UpdatedAt.IsZero() {
			return mcp.NewToolResultText("No reading received yet."), nil
		}

		var sb strings.Builder
		if snap.DistanceCM != nil {
			fmt.Fprintf(&sb, "Distance: %d cm\n", *snap.DistanceCM)
		}
		if snap.Zone != nil {
			fmt.Fprintf(&sb, "Zone: %s %s\n", zoneIcon(*snap.Zone), *snap.Zone)
		}
		fmt.Fprintf(&sb, "Updated: %s", snap.UpdatedAt.UTC().Format(time.RFC3339))

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func zoneIcon(z telemetry.Zone) string {
	switch z {
	case telemetry.ZoneSafe:
		return "✅"
	case telemetry.ZoneWarning:
		return "⚠️"
	case telemetry.ZoneDanger:
		return "🛑"
	default:
		return "❓"
	}
}
