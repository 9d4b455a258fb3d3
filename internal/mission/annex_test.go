package mission

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acp-protocol/bridge/internal/models"
)

func conversationEnvelope(t *testing.T, recipient, sender, role, text string) *models.Envelope {
	t.Helper()
	content, _ := json.Marshal(map[string]string{"role": role, "text": text})
	return &models.Envelope{
		Protocol:    "acp-1.0",
		MessageID:   "m1",
		Timestamp:   "2024-01-01T00:00:00Z",
		Sender:      models.Identity{ID: sender},
		Recipient:   models.Identity{ID: recipient},
		MessageType: models.MessageTypeConversation,
		Content:     content,
	}
}

func newTestWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mission.md")
	if err := os.WriteFile(path, []byte("# Mission\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return NewWriter(path, "roo-code"), path
}

func TestAnnexAppendsBlock(t *testing.T) {
	w, path := newTestWriter(t)

	env := conversationEnvelope(t, "roo-code", "alice", "user", "hi")
	if !w.Wants(env) {
		t.Fatal("expected routing predicate to match")
	}
	if err := w.Annex(env); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	for _, want := range []string{
		"### 2024-01-01 00:00",
		"- Alice",
		"**Message Type:** conversation",
		"**Role:** user",
		"**Content:** hi",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("mission file missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "###") != 1 {
		t.Fatalf("expected exactly one block, got:\n%s", got)
	}
}

func TestAnnexOmitsEmptyRole(t *testing.T) {
	w, path := newTestWriter(t)

	if err := w.Annex(conversationEnvelope(t, "roo-code", "bob", "", "no role here")); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "**Role:**") {
		t.Fatal("role line should be omitted when the content has no role")
	}
}

func TestWantsRejectsStatusAndOtherRecipients(t *testing.T) {
	w, _ := newTestWriter(t)

	status := conversationEnvelope(t, "roo-code", "alice", "user", "hi")
	status.MessageType = models.MessageTypeStatus
	if w.Wants(status) {
		t.Fatal("status envelopes must not be annexed")
	}

	other := conversationEnvelope(t, "someone-else", "alice", "user", "hi")
	if w.Wants(other) {
		t.Fatal("envelopes for other recipients must not be annexed")
	}
}

func TestAnnexMissingTarget(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "absent.md"), "roo-code")

	err := w.Annex(conversationEnvelope(t, "roo-code", "alice", "user", "hi"))
	if !errors.Is(err, ErrTargetMissing) {
		t.Fatalf("expected ErrTargetMissing, got %v", err)
	}
}

func TestAnnexToleratesMissingContentFields(t *testing.T) {
	w, path := newTestWriter(t)

	env := conversationEnvelope(t, "roo-code", "", "", "")
	env.Content = nil
	if err := w.Annex(env); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "- Unknown") {
		t.Fatalf("expected fallback sender, got:\n%s", data)
	}
}

func TestParseTimestampOffsets(t *testing.T) {
	for _, ts := range []string{
		"2024-01-01T00:00:00Z",
		"2024-01-01T00:00:00+00:00",
		"2024-01-01T00:00:00.123456Z",
		"2024-01-01T00:00:00",
	} {
		if _, err := parseTimestamp(ts); err != nil {
			t.Fatalf("parse %q: %v", ts, err)
		}
	}
	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Fatal("expected parse failure")
	}
}
