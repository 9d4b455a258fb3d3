package handlers

import (
	"net/http"
	"time"
)

// StatusResponse is the bridge's liveness and capability descriptor.
type StatusResponse struct {
	Status       string   `json:"status"`
	Agent        string   `json:"agent"`
	Type         string   `json:"type"`
	Capabilities []string `json:"capabilities"`
	Timestamp    string   `json:"timestamp"`
}

// Status handles GET /status. No state access; always online while serving.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, StatusResponse{
		Status:       "online",
		Agent:        h.cfg.AgentID,
		Type:         h.cfg.AgentType,
		Capabilities: h.cfg.Capabilities,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}
