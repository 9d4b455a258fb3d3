// Package acp implements validation for the ACP agent message envelope
// protocol.
package acp

import (
	"encoding/json"
	"fmt"

	"github.com/acp-protocol/bridge/internal/models"
)

// Version is the protocol tag every envelope must carry.
const Version = "acp-1.0"

// requiredFields are the seven top-level fields an envelope must have.
// Presence is checked, shapes are not.
var requiredFields = [...]string{
	"protocol",
	"message_id",
	"timestamp",
	"sender",
	"recipient",
	"message_type",
	"content",
}

// InvalidEnvelopeError reports why a candidate envelope was rejected.
type InvalidEnvelopeError struct {
	Field  string
	Reason string
}

func (e *InvalidEnvelopeError) Error() string {
	if e.Field == "" {
		return "invalid envelope: " + e.Reason
	}
	return fmt.Sprintf("invalid envelope: field %q %s", e.Field, e.Reason)
}

// Validate checks a candidate message against the envelope schema and returns
// the decoded envelope. A candidate is valid iff it is a JSON object, all
// required fields are present and protocol equals Version exactly. Nested
// sender/recipient/content shapes are intentionally not checked; callers that
// depend on sub-fields must tolerate their absence.
func Validate(raw []byte) (*models.Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &InvalidEnvelopeError{Reason: "body is not a JSON object"}
	}

	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return nil, &InvalidEnvelopeError{Field: name, Reason: "is required"}
		}
	}

	var protocol string
	if err := json.Unmarshal(fields["protocol"], &protocol); err != nil || protocol != Version {
		return nil, &InvalidEnvelopeError{Field: "protocol", Reason: "must be " + Version}
	}

	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Unreachable after the object check above, but kept for safety.
		return nil, &InvalidEnvelopeError{Reason: err.Error()}
	}
	return &env, nil
}
