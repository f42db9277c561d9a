package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/canelink/internal/api"
	"github.com/btouchard/canelink/internal/config"
	canemcp "github.com/btouchard/canelink/internal/mcp"
	"github.com/btouchard/canelink/internal/notify"
	"github.com/btouchard/canelink/internal/store"
	"github.com/btouchard/canelink/internal/telemetry"
	"github.com/btouchard/canelink/internal/transport"
	"github.com/btouchard/canelink/internal/tunnel"
)

const cleanupInterval = time.Hour

func newTransport(cfg *config.Config) transport.Transport {
	switch cfg.Device.Transport {
	case config.TransportMemory:
		mt := transport.NewMemoryTransport()
		// Nothing else links a loopback peer in serve mode.
		mt.Connect()
		return mt
	default:
		bt := transport.NewBLETransport()
		bt.OnReceive = func(data []byte) {
			slog.Info("phone wrote to cane", "bytes", len(data), "data", string(data))
		}
		return bt
	}
}

func newHub(cfg *config.Config) *notify.Hub {
	if cfg.Hub.Strict {
		return notify.NewHub(notify.WithStrictRegistration())
	}
	return notify.NewHub()
}

func attach(m *transport.Manager, name string, l notify.Listener) error {
	if _, err := m.Attach(l); err != nil {
		return fmt.Errorf("attaching %s listener: %w", name, err)
	}
	slog.Debug("listener attached", "listener", name)
	return nil
}

func run(ctx context.Context, cfg *config.Config, feed io.Reader) error {
	// --- Transport & hub ---
	tr := newTransport(cfg)
	if c, ok := tr.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}
	manager := transport.NewManager(tr, newHub(cfg))

	// --- SQLite history ---
	var db *store.SQLiteStore
	if cfg.Listeners.History {
		var err error
		db, err = store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() { _ = db.Close() }()
		slog.Info("database opened", "path", cfg.Database.Path)
	}

	tracker := telemetry.NewTracker()

	// --- MCP server ---
	var mcpServer *server.MCPServer
	if cfg.MCP.Enabled {
		deps := &canemcp.Deps{
			Manager: manager,
			Tracker: tracker,
			Version: version,
		}
		if db != nil {
			deps.History = db
		}
		mcpServer = canemcp.NewServer(deps)
	}

	// --- Listeners, in dispatch order ---
	if cfg.Listeners.MobileApp {
		if err := attach(manager, "mobile_app", notify.NewMobileAppListener(slog.Default())); err != nil {
			return err
		}
	}
	if db != nil {
		if err := attach(manager, "history", store.NewHistoryListener(db, cfg.Device.Name)); err != nil {
			return err
		}
	}
	if err := attach(manager, "tracker", tracker); err != nil {
		return err
	}
	if mcpServer != nil {
		if err := attach(manager, "mcp", notify.NewMCPListener(mcpServer, cfg.Device.Name, cfg.MCP.MinInterval)); err != nil {
			return err
		}
	}
	if cfg.Redis.Enabled {
		rdb, err := notify.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		if err := attach(manager, "redis", notify.NewRedisListener(rdb, cfg.Redis.Channel)); err != nil {
			return err
		}
	}

	// --- Start advertising ---
	if err := manager.Begin(cfg.Device.Name); err != nil {
		return err
	}

	if db != nil && cfg.Database.RetentionDays > 0 {
		go cleanupLoop(ctx, db, time.Duration(cfg.Database.RetentionDays)*24*time.Hour)
	}

	// --- HTTP router ---
	deps := api.Deps{
		Manager:     manager,
		Tracker:     tracker,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	if db != nil {
		deps.History = db
	}
	if mcpServer != nil {
		deps.MCP = server.NewStreamableHTTPServer(mcpServer)
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 2)
	go func() {
		slog.Info("canelink is ready", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// --- Public tunnel ---
	if cfg.Tunnel.Enabled {
		tun := tunnel.NewNgrok(cfg.Tunnel.AuthToken, cfg.Tunnel.Domain)
		if _, err := tun.Start(ctx); err != nil {
			_ = srv.Close()
			return err
		}
		defer func() { _ = tun.Close() }()
		go func() {
			if err := tun.Serve(router); err != nil {
				errCh <- err
			}
		}()
	}

	if feed != nil {
		go feedLines(ctx, manager, feed)
	}

	select {
	case err := <-errCh:
		_ = srv.Close()
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "stats", manager.Stats())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// feedLines sends every non-empty line of r, the way the firmware pushes each
// sensor reading.
func feedLines(ctx context.Context, m *transport.Manager, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := sc.Text()
		if line == "" {
			continue
		}
		if err := m.SendData(line); err != nil {
			slog.Warn("sending line", "error", err)
		}
	}
	if err := sc.Err(); err != nil {
		slog.Error("reading input", "error", err)
	}
}

func cleanupLoop(ctx context.Context, db store.Store, retention time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		n, err := db.Cleanup(time.Now().Add(-retention))
		if err != nil {
			slog.Error("history cleanup failed", "error", err)
		} else if n > 0 {
			slog.Info("history cleanup", "removed", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
