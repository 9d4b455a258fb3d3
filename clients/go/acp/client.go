// Package acp provides a client for the ACP agent bridge HTTP API.
package acp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// Version is the envelope protocol tag the bridge accepts.
const Version = "acp-1.0"

// Client is an ACP bridge API client.
type Client struct {
	BaseURL    string
	AgentID    string
	AgentType  string
	HTTPClient *http.Client
}

// NewClient creates a new bridge client identifying as agentID.
func NewClient(baseURL, agentID string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		BaseURL:    baseURL,
		AgentID:    agentID,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Identity names one party of an envelope.
type Identity struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// Envelope is the wire shape of an ACP message.
type Envelope struct {
	Protocol    string         `json:"protocol"`
	MessageID   string         `json:"message_id"`
	Timestamp   string         `json:"timestamp"`
	Sender      Identity       `json:"sender"`
	Recipient   Identity       `json:"recipient"`
	MessageType string         `json:"message_type"`
	Content     map[string]any `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// StatusResponse is the bridge's capability descriptor.
type StatusResponse struct {
	Status       string   `json:"status"`
	Agent        string   `json:"agent"`
	Type         string   `json:"type"`
	Capabilities []string `json:"capabilities"`
	Timestamp    string   `json:"timestamp"`
}

// MessagesResponse wraps the bridge's stored envelopes.
type MessagesResponse struct {
	Messages []Envelope `json:"messages"`
}

// SendResponse acknowledges an accepted envelope.
type SendResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
}

// doRequest performs an HTTP request against the bridge.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("bridge error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// Status fetches the bridge's liveness descriptor.
func (c *Client) Status() (*StatusResponse, error) {
	respBody, err := c.doRequest("GET", "/status", nil)
	if err != nil {
		return nil, err
	}
	var resp StatusResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Messages fetches the full stored envelope log.
func (c *Client) Messages() ([]Envelope, error) {
	respBody, err := c.doRequest("GET", "/messages", nil)
	if err != nil {
		return nil, err
	}
	var resp MessagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Send posts env to the bridge. The envelope's protocol, message_id,
// timestamp and sender are filled in when empty.
func (c *Client) Send(env *Envelope) (*SendResponse, error) {
	if env.Protocol == "" {
		env.Protocol = Version
	}
	if env.MessageID == "" {
		env.MessageID = ulid.Make().String()
	}
	if env.Timestamp == "" {
		env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if env.Sender.ID == "" {
		env.Sender = Identity{ID: c.AgentID, Type: c.AgentType}
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	respBody, err := c.doRequest("POST", "/send", body)
	if err != nil {
		return nil, err
	}

	var resp SendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendConversation sends one conversation turn to the named recipient.
func (c *Client) SendConversation(recipient, role, text string) (*SendResponse, error) {
	return c.Send(&Envelope{
		Recipient:   Identity{ID: recipient},
		MessageType: "conversation",
		Content:     map[string]any{"role": role, "text": text},
	})
}
