package models

import (
	"encoding/json"
)

// Message types carried by the ACP envelope protocol.
const (
	MessageTypeConversation = "conversation"
	MessageTypeStatus       = "status"
)

// BroadcastRecipient is the well-known recipient ID for envelopes addressed
// to every agent.
const BroadcastRecipient = "broadcast"

// Identity names one party of an envelope exchange.
type Identity struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// Envelope is a protocol-tagged message exchanged between agent processes.
//
// The protocol only guarantees the presence of the seven top-level fields;
// nested shapes are best-effort. The original wire bytes are retained in Raw
// so storing and re-serving an envelope never loses fields this struct does
// not model.
type Envelope struct {
	Protocol    string          `json:"protocol"`
	MessageID   string          `json:"message_id"`
	Timestamp   string          `json:"timestamp"` // ISO-8601 string, parsed lazily
	Sender      Identity        `json:"sender"`
	Recipient   Identity        `json:"recipient"`
	MessageType string          `json:"message_type"`
	Content     json.RawMessage `json:"content"`
	Metadata    map[string]any  `json:"metadata,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// ConversationContent is the expected (but not enforced) content shape of a
// conversation envelope.
type ConversationContent struct {
	Role string `json:"role,omitempty"`
	Text string `json:"text,omitempty"`
}

// Conversation decodes the envelope content as a conversation turn. Fields
// the sender omitted are left zero.
func (e *Envelope) Conversation() ConversationContent {
	var c ConversationContent
	if len(e.Content) > 0 {
		_ = json.Unmarshal(e.Content, &c)
	}
	return c
}

// UnmarshalJSON decodes an envelope while keeping the original bytes. Nested
// fields that do not match the expected shape are skipped rather than
// rejected, matching the protocol's presence-only contract.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	e.Raw = append(json.RawMessage(nil), data...)

	tryField(fields, "protocol", &e.Protocol)
	tryField(fields, "message_id", &e.MessageID)
	tryField(fields, "timestamp", &e.Timestamp)
	tryField(fields, "sender", &e.Sender)
	tryField(fields, "recipient", &e.Recipient)
	tryField(fields, "message_type", &e.MessageType)
	tryField(fields, "metadata", &e.Metadata)
	if raw, ok := fields["content"]; ok {
		e.Content = raw
	}
	return nil
}

// MarshalJSON writes the original bytes when the envelope came off the wire,
// so stored envelopes round-trip unchanged.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	type envelope Envelope // drop methods to avoid recursion
	return json.Marshal(envelope(e))
}

func tryField[T any](fields map[string]json.RawMessage, name string, dst *T) {
	if raw, ok := fields[name]; ok {
		_ = json.Unmarshal(raw, dst)
	}
}
