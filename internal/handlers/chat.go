package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/acp-protocol/bridge/internal/models"
)

// ChatSendRequest is the chat-API variant of POST /send.
type ChatSendRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatSend handles POST /send in chat mode: wrap the text into a timestamped
// ChatMessage, broadcast it to every relay session and echo it back.
func (h *Handler) ChatSend(w http.ResponseWriter, r *http.Request) {
	var req ChatSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		h.Error(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Sender == "" {
		req.Sender = "anonymous"
	}

	msg := models.ChatMessage{
		Sender:    req.Sender,
		Text:      req.Text,
		Timestamp: time.Now().UTC(),
	}
	h.hub.PublishChat(msg)

	h.JSON(w, http.StatusOK, msg)
}

// ChatMessages handles GET /messages in chat mode: the buffered chat history
// in chronological order.
func (h *Handler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	messages := h.hub.History().All()
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	h.JSON(w, http.StatusOK, messages)
}
