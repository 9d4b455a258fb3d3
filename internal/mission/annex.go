// Package mission appends accepted conversation turns to the mission file, a
// human-readable transcript kept alongside the durable message log.
package mission

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/acp-protocol/bridge/internal/models"
)

// ErrTargetMissing is returned when the mission file does not exist.
// Annexing is a best-effort side channel, so callers log this and move on;
// the durable message log is the primary path.
var ErrTargetMissing = errors.New("mission file not found")

// timestampLayouts cover the ISO-8601 forms agents actually send, after the
// trailing "Z" has been normalized to an explicit offset.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Writer appends transcript blocks for conversation envelopes addressed to a
// configured recipient identity.
type Writer struct {
	mu        sync.Mutex
	path      string
	recipient string
}

// NewWriter creates a mission annex writer targeting the file at path.
func NewWriter(path, recipient string) *Writer {
	return &Writer{path: path, recipient: recipient}
}

// Path returns the mission file path.
func (w *Writer) Path() string {
	return w.path
}

// Wants reports whether env is routed to the annex: a conversation envelope
// whose recipient matches the configured identity.
func (w *Writer) Wants(env *models.Envelope) bool {
	return env.MessageType == models.MessageTypeConversation && env.Recipient.ID == w.recipient
}

// Annex appends one transcript block for env to the mission file. The file
// must already exist; if it does not, ErrTargetMissing is returned and
// nothing is written.
func (w *Writer) Annex(env *models.Envelope) error {
	if _, err := os.Stat(w.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrTargetMissing
		}
		return err
	}

	when, err := parseTimestamp(env.Timestamp)
	if err != nil {
		return fmt.Errorf("envelope timestamp: %w", err)
	}

	sender := env.Sender.ID
	if sender == "" {
		sender = "unknown"
	}
	content := env.Conversation()

	var b strings.Builder
	fmt.Fprintf(&b, "\n### %s - %s\n", when.Format("2006-01-02 15:04 MST"), capitalize(sender))
	fmt.Fprintf(&b, "**Message Type:** %s\n", env.MessageType)
	if content.Role != "" {
		fmt.Fprintf(&b, "**Role:** %s\n", content.Role)
	}
	fmt.Fprintf(&b, "**Content:** %s\n", content.Text)

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// parseTimestamp parses an ISO-8601 timestamp, converting a trailing "Z" UTC
// marker to an explicit offset first.
func parseTimestamp(ts string) (time.Time, error) {
	if strings.HasSuffix(ts, "Z") {
		ts = strings.TrimSuffix(ts, "Z") + "+00:00"
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, ts)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
