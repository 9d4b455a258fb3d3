package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/acp-protocol/bridge/internal/config"
	"github.com/acp-protocol/bridge/internal/mission"
	"github.com/acp-protocol/bridge/internal/relay"
	"github.com/acp-protocol/bridge/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	log    store.MessageLog
	annex  *mission.Writer
	hub    *relay.Hub // nil when there is no relay to push envelopes into
	cfg    *config.Config
	logger zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(log store.MessageLog, annex *mission.Writer, hub *relay.Hub, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{log: log, annex: annex, hub: hub, cfg: cfg, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
