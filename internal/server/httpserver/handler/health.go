package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/kvmesh-go/internal/infra/buildinfo"
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports 503 until the protocol listener is up.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	var stats *Stats
	if h.stats != nil {
		s := h.stats()
		stats = &s
	}

	if h.ready != nil && !h.ready() {
		h.writeError(w, r, http.StatusServiceUnavailable, CodeNotReady, "kv listener not ready",
			ReadyResponse{Status: "not_ready", Stats: stats})
		return
	}
	h.writeJSON(w, r, http.StatusOK, ReadyResponse{Status: "ready", Stats: stats})
}

func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, buildinfo.Get())
}
