package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/acp-protocol/bridge/internal/acp"
	"github.com/acp-protocol/bridge/internal/metrics"
	"github.com/acp-protocol/bridge/internal/mission"
	"github.com/acp-protocol/bridge/internal/models"
)

// SendResponse acknowledges an accepted envelope.
type SendResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
}

// Send handles POST /send: validate the envelope, durably append it, then
// acknowledge. Recipient-triggered side effects (annexing, relay push) run
// off the request path and never fail the send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	env, err := acp.Validate(body)
	if err != nil {
		metrics.EnvelopesReceived.WithLabelValues("rejected").Inc()
		h.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.log.Append(r.Context(), env); err != nil {
		metrics.EnvelopesReceived.WithLabelValues("failed").Inc()
		h.logger.Error().Err(err).Str("message_id", env.MessageID).Msg("append failed")
		h.Error(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	metrics.EnvelopesReceived.WithLabelValues("accepted").Inc()
	h.logger.Info().
		Str("message_id", env.MessageID).
		Str("from", env.Sender.ID).
		Str("to", env.Recipient.ID).
		Str("type", env.MessageType).
		Msg("stored message")

	go h.process(env)

	h.JSON(w, http.StatusOK, SendResponse{
		Status:    "message_received",
		MessageID: env.MessageID,
	})
}

// process runs side effects for an accepted envelope: push it into the relay
// so browser sessions see it, and annex conversation turns addressed to this
// bridge. Failures here are logged and scoped to the envelope.
func (h *Handler) process(env *models.Envelope) {
	if h.hub != nil {
		h.hub.Publish(env.Raw)
	}

	if h.annex == nil || !h.annex.Wants(env) {
		return
	}
	if err := h.annex.Annex(env); err != nil {
		metrics.AnnexErrors.Inc()
		if errors.Is(err, mission.ErrTargetMissing) {
			h.logger.Error().Str("path", h.annex.Path()).Msg("mission file not found, skipping annex")
		} else {
			h.logger.Error().Err(err).Str("message_id", env.MessageID).Msg("annex failed")
		}
		return
	}
	metrics.AnnexAppends.Inc()
	h.logger.Info().Str("message_id", env.MessageID).Msg("appended message to mission file")
}

// Announce appends the bridge's own status envelope to the log, so agents
// polling /messages see a liveness record even if they join late.
func (h *Handler) Announce(ctx context.Context, listenAddr string) error {
	content, err := json.Marshal(map[string]any{
		"status":       "online",
		"capabilities": h.cfg.Capabilities,
		"listening_on": listenAddr,
	})
	if err != nil {
		return err
	}

	workspace, _ := os.Getwd()
	env := &models.Envelope{
		Protocol:    acp.Version,
		MessageID:   h.cfg.AgentID + "-status-" + ulid.Make().String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Sender:      models.Identity{ID: h.cfg.AgentID, Type: h.cfg.AgentType},
		Recipient:   models.Identity{ID: models.BroadcastRecipient, Type: "all"},
		MessageType: models.MessageTypeStatus,
		Content:     content,
		Metadata: map[string]any{
			"mission_file": h.cfg.MissionFile,
			"workspace":    workspace,
		},
	}
	return h.log.Append(ctx, env)
}
