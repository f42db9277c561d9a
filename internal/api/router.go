package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/btouchard/canelink/internal/store"
	"github.com/btouchard/canelink/internal/telemetry"
	"github.com/btouchard/canelink/internal/transport"
)

// MessageLister reads the message history.
// Defined consumer-side per Go convention.
type MessageLister interface {
	ListMessages(f store.MessageFilter) ([]store.MessageRecord, error)
}

// Deps holds what the HTTP handlers read from and write to.
type Deps struct {
	Manager *transport.Manager
	Tracker *telemetry.Tracker
	History MessageLister // nil when history is disabled
	MCP     http.Handler  // nil when MCP is disabled

	// CORSOrigins lists the browser origins allowed to call the API.
	// Empty means any origin.
	CORSOrigins []string
}

// NewRouter builds the bridge's HTTP surface.
func NewRouter(deps Deps) chi.Router {
	h := &handler{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(deps.CORSOrigins))
	r.Use(requestLogger)
	r.Use(SecurityHeaders)

	r.Get("/health", h.health)
	r.Get("/cane-data", h.caneData)
	r.Post("/messages", h.sendMessage)
	if deps.History != nil {
		r.Get("/messages", h.listMessages)
	}
	if deps.MCP != nil {
		r.Handle("/mcp", deps.MCP)
	}

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Mcp-Session-Id", "Mcp-Protocol-Version"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         300,
	})
}

// SecurityHeaders sets conservative response headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
