package tunnel

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrNotStarted is returned by Serve before Start succeeded.
var ErrNotStarted = errors.New("tunnel not started")

// Tunnel publishes the bridge's HTTP surface (REST and MCP) on a public
// HTTPS URL so a phone or assistant outside the LAN can reach it.
type Tunnel interface {
	Start(ctx context.Context) (publicURL string, err error)
	Serve(h http.Handler) error
	Close() error
	PublicURL() string
}

// publicURL normalizes a listener address into an https URL.
func publicURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "https://" + addr
}
