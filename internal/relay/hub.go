// Package relay implements the real-time fan-out path: a websocket hub that
// broadcasts every inbound frame to all connected sessions.
package relay

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/acp-protocol/bridge/internal/metrics"
	"github.com/acp-protocol/bridge/internal/models"
)

// FrameMode selects how inbound frames are interpreted.
type FrameMode string

const (
	// FrameRaw broadcasts inbound frames verbatim, sender-opaque.
	FrameRaw FrameMode = "raw"
	// FrameChat wraps inbound text into a ChatMessage with the session
	// identity injected as sender, broadcast as JSON.
	FrameChat FrameMode = "chat"
)

// Options configures a Hub.
type Options struct {
	Mode         FrameMode
	MaxSessions  int
	HistoryCap   int
	ReplayCount  int
	WriteTimeout time.Duration
	QueueSize    int
}

// Hub owns the connection registry and the chat history buffer, and fans
// inbound messages out to every registered session.
type Hub struct {
	registry     *Registry
	history      *History
	logger       zerolog.Logger
	mode         FrameMode
	replay       int
	writeTimeout time.Duration
	queueSize    int
	upgrader     websocket.Upgrader
}

// NewHub creates a relay hub.
func NewHub(opts Options, logger zerolog.Logger) *Hub {
	if opts.ReplayCount <= 0 {
		opts.ReplayCount = 50
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Mode == "" {
		opts.Mode = FrameRaw
	}
	return &Hub{
		registry:     NewRegistry(opts.MaxSessions),
		history:      NewHistory(opts.HistoryCap),
		logger:       logger,
		mode:         opts.Mode,
		replay:       opts.ReplayCount,
		writeTimeout: opts.WriteTimeout,
		queueSize:    opts.QueueSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Senders are not authenticated anywhere else either.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// History exposes the hub's chat history buffer.
func (h *Hub) History() *History {
	return h.history
}

// Sessions returns the number of currently open sessions.
func (h *Hub) Sessions() int {
	return h.registry.Len()
}

// Publish delivers raw to every registered session. Delivery is best-effort
// and independent per session: a failed send drops that session from the
// registry and never aborts the rest of the fan-out.
func (h *Hub) Publish(raw []byte) {
	h.registry.ForEach(func(s *Session) {
		if err := s.Send(raw); err != nil {
			h.logger.Warn().Stringer("session", s.ID).Err(err).Msg("dropping session")
			h.registry.Unregister(s)
			s.Close()
		}
	})
	metrics.RelayBroadcasts.Inc()
}

// PublishChat records msg in the history buffer and broadcasts it as JSON.
func (h *Hub) PublishChat(msg models.ChatMessage) {
	h.history.Append(msg)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.Publish(data)
}

// ServeWS upgrades the request to a websocket session and runs its read loop
// until the peer disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s := NewSession(conn, h.writeTimeout, h.queueSize)
	if err := h.Join(s); err != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server full"))
		conn.Close()
		return
	}

	h.logger.Info().Stringer("session", s.ID).Int("sessions", h.registry.Len()).Msg("session joined")
	h.readLoop(s)
}

// Join registers s, opens it and replays recent history. Split out from
// ServeWS so tests can drive sessions over fake connections.
func (h *Hub) Join(s *Session) error {
	if err := h.registry.Register(s); err != nil {
		return err
	}
	s.OnClose = func(closed *Session) {
		h.registry.Unregister(closed)
		h.logger.Info().Stringer("session", closed.ID).Msg("session closed")
	}
	s.Open()

	// Point-in-time snapshot; a message racing the join may be replayed
	// and then observed live once. Clients tolerate that.
	for _, msg := range h.history.Recent(h.replay) {
		if data, err := json.Marshal(msg); err == nil {
			if err := s.Send(data); err != nil {
				break
			}
		}
	}
	return nil
}

// readLoop pumps inbound frames from one session into the broadcaster. Any
// read error, malformed close included, removes just this session.
func (h *Hub) readLoop(s *Session) {
	defer s.Close()
	for {
		frame, err := s.Read()
		if err != nil {
			return
		}
		switch h.mode {
		case FrameChat:
			h.PublishChat(models.ChatMessage{
				Sender:    s.ID.String(),
				Text:      string(frame),
				Timestamp: time.Now().UTC(),
			})
		default:
			h.Publish(frame)
		}
	}
}
