package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/canelink/internal/mcp/handlers"
)

func registerTools(s *server.MCPServer, deps *Deps) {
	// device_status: Link state and counters
	s.AddTool(
		mcp.NewTool("device_status",
			mcp.WithDescription("Show whether a phone is linked to the cane, plus sent/dropped/failed message counters."),
		),
		handlers.DeviceStatus(deps.Manager),
	)

	// send_message: Push a line to the linked phone
	s.AddTool(
		mcp.NewTool("send_message",
			mcp.WithDescription("Send a line to the linked phone and notify every listener. Dropped silently when no phone is linked."),
			mcp.WithString("message",
				mcp.Required(),
				mcp.Description("The line to send, e.g. 'Distance: 42 cm Zone: WARNING'"),
			),
		),
		handlers.SendMessage(deps.Manager),
	)

	// latest_reading: Last distance/zone seen
	s.AddTool(
		mcp.NewTool("latest_reading",
			mcp.WithDescription("Get the last distance and zone reported by the cane."),
		),
		handlers.LatestReading(deps.Tracker),
	)

	if deps.History == nil {
		return
	}

	// list_messages: Message history
	s.AddTool(
		mcp.NewTool("list_messages",
			mcp.WithDescription("List recently sent messages, newest first."),
			mcp.WithString("zone",
				mcp.Description("Only messages carrying this zone"),
				mcp.Enum("SAFE", "WARNING", "DANGER"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of messages to return (default: 20)"),
			),
		),
		handlers.ListMessages(deps.History),
	)
}
