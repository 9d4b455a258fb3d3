package relay

import (
	"fmt"
	"testing"
	"time"

	"github.com/acp-protocol/bridge/internal/models"
)

func chatMsg(i int) models.ChatMessage {
	return models.ChatMessage{
		Sender:    "tester",
		Text:      fmt.Sprintf("msg-%d", i),
		Timestamp: time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

func TestHistoryEviction(t *testing.T) {
	const limit = 10
	h := NewHistory(limit)

	for i := 0; i < limit*3; i++ {
		h.Append(chatMsg(i))
	}

	if h.Len() != limit {
		t.Fatalf("expected %d messages after overflow, got %d", limit, h.Len())
	}

	all := h.All()
	for i, msg := range all {
		if want := fmt.Sprintf("msg-%d", limit*2+i); msg.Text != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, msg.Text)
		}
	}
}

func TestHistoryRecent(t *testing.T) {
	h := NewHistory(100)
	for i := 0; i < 5; i++ {
		h.Append(chatMsg(i))
	}

	recent := h.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(recent))
	}
	if recent[0].Text != "msg-2" || recent[2].Text != "msg-4" {
		t.Fatalf("unexpected window: %+v", recent)
	}

	// Asking for more than buffered returns what exists.
	if got := h.Recent(50); len(got) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(got))
	}

	// Non-destructive reads.
	if h.Len() != 5 {
		t.Fatalf("Recent must not consume messages, got len %d", h.Len())
	}
}
