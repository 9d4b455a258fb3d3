package store

import (
	"context"

	"github.com/acp-protocol/bridge/internal/models"
)

// MessageLog is the append-only durable record of accepted envelopes.
// Both FileLog and SQLiteLog implement this interface.
//
// Append must not return until the envelope is durably flushed, and
// concurrent appends must serialize so none is lost. Query may run
// concurrently with appends but must never observe a partial write.
type MessageLog interface {
	Append(ctx context.Context, env *models.Envelope) error
	Query(ctx context.Context) ([]models.Envelope, error)
	Ping(ctx context.Context) error
	Close() error
}
