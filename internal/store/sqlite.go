package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/acp-protocol/bridge/internal/metrics"
	"github.com/acp-protocol/bridge/internal/models"
)

// SQLiteLog stores envelopes in a SQLite table, one row per envelope.
// Append order is preserved by the autoincrement key. An alternative to
// FileLog for deployments where a rewrite-whole-document store is too risky.
type SQLiteLog struct {
	db        *sql.DB
	retention int
}

// NewSQLiteLog opens (and if needed creates) a SQLite-backed message log.
// If dbPath is empty, defaults to "./data/bridge.db".
func NewSQLiteLog(ctx context.Context, dbPath string, retention int) (*SQLiteLog, error) {
	if dbPath == "" {
		dbPath = "./data/bridge.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	log := &SQLiteLog{db: db, retention: retention}
	if err := log.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return log, nil
}

func (l *SQLiteLog) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL,
		envelope TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_messages_message_id ON messages(message_id);
	`
	_, err := l.db.ExecContext(ctx, schema)
	return err
}

// Append stores one envelope. The insert commits before returning, which is
// the durability point for this backend.
func (l *SQLiteLog) Append(ctx context.Context, env *models.Envelope) error {
	start := time.Now()

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO messages (message_id, envelope) VALUES (?, ?)
	`, env.MessageID, string(data))
	if err != nil {
		return err
	}

	if l.retention > 0 {
		_, err = l.db.ExecContext(ctx, `
			DELETE FROM messages WHERE seq NOT IN (
				SELECT seq FROM messages ORDER BY seq DESC LIMIT ?
			)
		`, l.retention)
		if err != nil {
			return err
		}
	}

	metrics.StoreAppendDuration.Observe(time.Since(start).Seconds())
	return nil
}

// Query returns all stored envelopes in append order. Rows that fail to
// decode are skipped.
func (l *SQLiteLog) Query(ctx context.Context) ([]models.Envelope, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT envelope FROM messages ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var envelopes []models.Envelope
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var env models.Envelope
		if err := json.Unmarshal([]byte(data), &env); err != nil {
			continue
		}
		envelopes = append(envelopes, env)
	}
	return envelopes, rows.Err()
}

// Ping checks the database connection.
func (l *SQLiteLog) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// Close closes the database connection.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
