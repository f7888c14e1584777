package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/saverr-hub/internal/application/hub"
)

type statsSource interface {
	Stats() hub.Stats
}

// HealthHandler handles health-check endpoints.
type HealthHandler struct {
	registry statsSource
}

func NewHealthHandler(registry statsSource) *HealthHandler {
	return &HealthHandler{registry: registry}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if action == "ping" {
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
		return
	}
	writeError(w, http.StatusBadRequest, "unknown action")
}

type healthResponse struct {
	Status string    `json:"status"`
	Push   hub.Stats `json:"push"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Push: h.registry.Stats()})
}
