package handlers

import (
	"net/http"

	"github.com/acp-protocol/bridge/internal/models"
)

// MessagesResponse wraps the persisted envelope log.
type MessagesResponse struct {
	Messages []models.Envelope `json:"messages"`
}

// Messages handles GET /messages: the full persisted log in append order.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	envelopes, err := h.log.Query(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to read message log")
		return
	}
	if envelopes == nil {
		envelopes = []models.Envelope{}
	}
	h.JSON(w, http.StatusOK, MessagesResponse{Messages: envelopes})
}
