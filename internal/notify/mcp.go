package notify

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/btouchard/canelink/internal/telemetry"
)

// MCPSender abstracts the mcp-go server broadcast method.
// Defined consumer-side per Go convention.
type MCPSender interface {
	SendNotificationToAllClients(method string, params map[string]any)
}

// MCPListener pushes every message to connected MCP clients as a
// notifications/message. Messages arriving faster than the configured
// interval are dropped, except DANGER readings which always go out.
type MCPListener struct {
	sender  MCPSender
	limiter *rate.Limiter
	device  string
}

// NewMCPListener creates an MCPListener allowing at most one message per
// minInterval. A non-positive interval disables throttling.
func NewMCPListener(sender MCPSender, device string, minInterval time.Duration) *MCPListener {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &MCPListener{
		sender:  sender,
		limiter: rate.NewLimiter(limit, 1),
		device:  device,
	}
}

// Receive forwards message to all MCP clients.
func (n *MCPListener) Receive(message string) error {
	level := "info"
	data := map[string]any{
		"device":  n.device,
		"message": message,
	}

	if r, ok := telemetry.Parse(message); ok {
		if r.HasDistance {
			data["distance_cm"] = r.DistanceCM
		}
		if r.HasZone {
			data["zone"] = string(r.Zone)
			if r.Zone == telemetry.ZoneDanger {
				level = "warning"
			}
		}
	}

	if level != "warning" && !n.limiter.Allow() {
		slog.Debug("mcp listener: message throttled", "device", n.device)
		return nil
	}

	n.sender.SendNotificationToAllClients("notifications/message", map[string]any{
		"level":  level,
		"logger": "canelink",
		"data":   data,
	})
	return nil
}
