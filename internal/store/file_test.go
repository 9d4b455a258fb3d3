package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/acp-protocol/bridge/internal/models"
)

func testEnvelope(t *testing.T, id string) *models.Envelope {
	t.Helper()
	raw := fmt.Sprintf(`{"protocol":"acp-1.0","message_id":%q,"timestamp":"2024-01-01T00:00:00Z","sender":{"id":"alice"},"recipient":{"id":"bob"},"message_type":"conversation","content":{"text":"hi"}}`, id)
	var env models.Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatal(err)
	}
	return &env
}

func newTestFileLog(t *testing.T) (*FileLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comms.json")
	log, err := NewFileLog(path, 0, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return log, path
}

func TestFileLogAppendOrder(t *testing.T) {
	log, _ := newTestFileLog(t)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		if err := log.Append(ctx, testEnvelope(t, fmt.Sprintf("m%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := log.Query(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != n {
		t.Fatalf("expected %d envelopes, got %d", n, len(got))
	}
	for i, env := range got {
		if want := fmt.Sprintf("m%d", i); env.MessageID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, env.MessageID)
		}
	}
}

func TestFileLogSurvivesRestart(t *testing.T) {
	log, path := newTestFileLog(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := log.Append(ctx, testEnvelope(t, fmt.Sprintf("m%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	// A fresh log over the same path must see everything.
	reopened, err := NewFileLog(path, 0, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.Query(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[2].MessageID != "m2" {
		t.Fatalf("unexpected log after restart: %+v", got)
	}
}

func TestFileLogConcurrentAppends(t *testing.T) {
	log, _ := newTestFileLog(t)
	ctx := context.Background()

	const k = 32
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := log.Append(ctx, testEnvelope(t, fmt.Sprintf("c%d", i))); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	got, err := log.Query(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != k {
		t.Fatalf("lost updates: expected %d envelopes, got %d", k, len(got))
	}

	seen := make(map[string]bool, k)
	for _, env := range got {
		if seen[env.MessageID] {
			t.Fatalf("duplicate envelope %s", env.MessageID)
		}
		seen[env.MessageID] = true
	}
}

func TestFileLogRecoversFromCorruption(t *testing.T) {
	log, path := newTestFileLog(t)
	ctx := context.Background()

	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	// Corruption is not a hard failure: the log starts fresh.
	if err := log.Append(ctx, testEnvelope(t, "after-corruption")); err != nil {
		t.Fatal(err)
	}

	got, err := log.Query(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].MessageID != "after-corruption" {
		t.Fatalf("expected fresh log with one envelope, got %+v", got)
	}
}

func TestFileLogRetention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comms.json")
	log, err := NewFileLog(path, 3, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := log.Append(ctx, testEnvelope(t, fmt.Sprintf("m%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := log.Query(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected retention cap of 3, got %d", len(got))
	}
	for i, want := range []string{"m7", "m8", "m9"} {
		if got[i].MessageID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got[i].MessageID)
		}
	}
}

func TestFileLogPreservesUnmodeledFields(t *testing.T) {
	log, path := newTestFileLog(t)
	ctx := context.Background()

	raw := `{"protocol":"acp-1.0","message_id":"x","timestamp":"2024-01-01T00:00:00Z","sender":{"id":"a"},"recipient":{"id":"b"},"message_type":"status","content":{},"custom_extension":{"flag":true}}`
	var env models.Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatal(err)
	}
	if err := log.Append(ctx, &env); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Messages []map[string]json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Messages) != 1 {
		t.Fatalf("expected one stored message, got %d", len(doc.Messages))
	}
	if _, ok := doc.Messages[0]["custom_extension"]; !ok {
		t.Fatal("extension field was lost on the round trip")
	}
}
