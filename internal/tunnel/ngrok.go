package tunnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	ngroklib "golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"
)

// NgrokTunnel implements Tunnel on top of an ngrok HTTP endpoint.
type NgrokTunnel struct {
	authToken string
	domain    string

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	url      string
}

// NewNgrok creates a tunnel with the given auth token and optional fixed domain.
func NewNgrok(authToken, domain string) *NgrokTunnel {
	return &NgrokTunnel{
		authToken: authToken,
		domain:    domain,
	}
}

func (n *NgrokTunnel) endpoint() ngrokconfig.Tunnel {
	if n.domain != "" {
		return ngrokconfig.HTTPEndpoint(ngrokconfig.WithDomain(n.domain))
	}
	return ngrokconfig.HTTPEndpoint()
}

// Start opens the ngrok endpoint and returns its public URL.
func (n *NgrokTunnel) Start(ctx context.Context) (string, error) {
	if n.authToken == "" {
		return "", fmt.Errorf("ngrok auth token is required (set tunnel.authtoken or CANELINK_NGROK_AUTHTOKEN)")
	}

	slog.Info("starting ngrok tunnel", "domain", n.domain)

	ln, err := ngroklib.Listen(ctx, n.endpoint(), ngroklib.WithAuthtoken(n.authToken))
	if err != nil {
		return "", fmt.Errorf("opening ngrok tunnel: %w", err)
	}

	n.mu.Lock()
	n.listener = ln
	n.url = publicURL(ln.Addr().String())
	url := n.url
	n.mu.Unlock()

	slog.Info("ngrok tunnel established", "public_url", url)
	return url, nil
}

// Serve serves h on the tunnel until Close. It returns nil after Close.
func (n *NgrokTunnel) Serve(h http.Handler) error {
	n.mu.Lock()
	if n.listener == nil {
		n.mu.Unlock()
		return ErrNotStarted
	}
	ln := n.listener
	n.server = &http.Server{Handler: h}
	srv := n.server
	n.mu.Unlock()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("serving on tunnel: %w", err)
	}
	return nil
}

// Close stops serving and tears the tunnel down. Closing an unstarted tunnel
// is a no-op.
func (n *NgrokTunnel) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listener == nil {
		return nil
	}

	slog.Info("closing ngrok tunnel", "public_url", n.url)

	if n.server != nil {
		_ = n.server.Close()
		n.server = nil
	}
	err := n.listener.Close()
	n.listener = nil
	n.url = ""
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("closing ngrok tunnel: %w", err)
	}
	return nil
}

// PublicURL returns the public URL, or "" before Start.
func (n *NgrokTunnel) PublicURL() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.url
}
