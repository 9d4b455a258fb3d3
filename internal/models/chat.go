package models

import "time"

// ChatMessage is one message on the real-time relay. Immutable once created;
// lives in the in-memory history buffer, never persisted.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
