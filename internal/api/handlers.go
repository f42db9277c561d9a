package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/btouchard/canelink/internal/store"
	"github.com/btouchard/canelink/internal/transport"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxBodyBytes     = 4 << 10
)

type handler struct {
	deps Deps
}

type healthResponse struct {
	Status  string `json:"status"`
	State   string `json:"state"`
	Device  string `json:"device,omitempty"`
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	stats := h.deps.Manager.Stats()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		State:   string(h.deps.Manager.State()),
		Device:  h.deps.Manager.DeviceName(),
		Sent:    stats.Sent,
		Dropped: stats.Dropped,
		Failed:  stats.Failed,
	})
}

func (h *handler) caneData(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Tracker.Latest())
}

type sendRequest struct {
	Message string `json:"message"`
}

type sendResponse struct {
	Sent          bool   `json:"sent"`
	ListenerError string `json:"listener_error,omitempty"`
}

func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg, err := transport.CleanMessage(req.Message)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sent, err := h.deps.Manager.TrySend(msg)
	switch {
	case err != nil && !sent:
		slog.Warn("send failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	case err != nil:
		// The phone has the line; only a listener failed.
		slog.Warn("listener failed after send", "error", err)
		writeJSON(w, http.StatusAccepted, sendResponse{Sent: true, ListenerError: err.Error()})
	default:
		writeJSON(w, http.StatusAccepted, sendResponse{Sent: sent})
	}
}

func (h *handler) listMessages(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	msgs, err := h.deps.History.ListMessages(store.MessageFilter{
		Device: r.URL.Query().Get("device"),
		Zone:   strings.ToUpper(r.URL.Query().Get("zone")),
		Limit:  limit,
	})
	if err != nil {
		slog.Error("listing messages", "error", err)
		writeError(w, http.StatusInternalServerError, "reading history failed")
		return
	}
	if msgs == nil {
		msgs = []store.MessageRecord{}
	}

	writeJSON(w, http.StatusOK, msgs)
}
