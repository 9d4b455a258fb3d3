package relay

import (
	"sync"

	"github.com/acp-protocol/bridge/internal/models"
)

// History is a bounded in-memory buffer of recent chat messages, replayed to
// newly joined sessions. FIFO: once the cap is exceeded the oldest message is
// evicted.
type History struct {
	mu   sync.Mutex
	cap  int
	msgs []models.ChatMessage
}

// NewHistory creates a history buffer with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 100
	}
	return &History{cap: capacity}
}

// Append adds msg at the tail, evicting from the head past capacity.
func (h *History) Append(msg models.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.msgs = append(h.msgs, msg)
	if len(h.msgs) > h.cap {
		h.msgs = h.msgs[len(h.msgs)-h.cap:]
	}
}

// Recent returns up to the last n messages in chronological order. The
// result is a copy; this is a point-in-time snapshot, not a subscription.
func (h *History) Recent(n int) []models.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > len(h.msgs) || n < 0 {
		n = len(h.msgs)
	}
	out := make([]models.ChatMessage, n)
	copy(out, h.msgs[len(h.msgs)-n:])
	return out
}

// All returns every buffered message in chronological order.
func (h *History) All() []models.ChatMessage {
	return h.Recent(-1)
}

// Len returns the current number of buffered messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}
