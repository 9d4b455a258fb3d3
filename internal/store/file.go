package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/acp-protocol/bridge/internal/metrics"
	"github.com/acp-protocol/bridge/internal/models"
)

// document is the persisted shape of the communications file.
type document struct {
	Messages []models.Envelope `json:"messages"`
}

// FileLog persists envelopes as a single JSON document at a configured path.
//
// The load-append-persist sequence runs under a per-log mutex so concurrent
// appends cannot lose updates, and the document is written to a temp file and
// renamed into place so readers never see a partial write. A corrupt or
// missing file is logged and treated as an empty log, never as a hard
// failure.
type FileLog struct {
	mu        sync.Mutex
	path      string
	retention int // max envelopes kept, 0 = unlimited
	logger    zerolog.Logger
}

// NewFileLog creates a file-backed message log. The parent directory is
// created if needed; the file itself is created on first append.
func NewFileLog(path string, retention int, logger zerolog.Logger) (*FileLog, error) {
	if path == "" {
		path = ".agntcy-comms.json"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return &FileLog{path: path, retention: retention, logger: logger}, nil
}

// Append durably stores one envelope. It returns only after the updated
// document has been flushed and renamed into place.
func (l *FileLog) Append(ctx context.Context, env *models.Envelope) error {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := l.load()
	doc.Messages = append(doc.Messages, *env)
	if l.retention > 0 && len(doc.Messages) > l.retention {
		doc.Messages = doc.Messages[len(doc.Messages)-l.retention:]
	}

	if err := l.persist(doc); err != nil {
		return err
	}
	metrics.StoreAppendDuration.Observe(time.Since(start).Seconds())
	return nil
}

// Query returns the full persisted log in append order. It serializes behind
// the same mutex as Append so a concurrent append is observed either fully or
// not at all.
func (l *FileLog) Query(ctx context.Context) ([]models.Envelope, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load().Messages, nil
}

// Ping checks that the log's directory is accessible.
func (l *FileLog) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(l.path))
	return err
}

// Close is a no-op; the file is not held open between operations.
func (l *FileLog) Close() error {
	return nil
}

// load reads the current document. Absence or corruption yields an empty
// document: the log recovers by starting fresh rather than failing appends.
func (l *FileLog) load() document {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Error().Err(err).Str("path", l.path).Msg("comms file unreadable, starting fresh")
		}
		return document{}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		l.logger.Error().Err(err).Str("path", l.path).Msg("comms file corrupt, starting fresh")
		return document{}
	}
	return doc
}

// persist writes the document to a temp file in the same directory, flushes
// it, and renames it over the log path. Rename is atomic on POSIX, so a
// concurrent reader sees either the old or the new document.
func (l *FileLog) persist(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".comms-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}
