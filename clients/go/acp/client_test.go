package acp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendFillsDefaults(t *testing.T) {
	var received Envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" || r.Method != "POST" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(SendResponse{Status: "message_received", MessageID: received.MessageID})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "alice")
	c.AgentType = "human"

	resp, err := c.SendConversation("roo-code", "user", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != "message_received" {
		t.Fatalf("unexpected ack: %+v", resp)
	}

	if received.Protocol != Version {
		t.Errorf("protocol = %q", received.Protocol)
	}
	if received.MessageID == "" {
		t.Error("message_id not filled")
	}
	if received.Timestamp == "" {
		t.Error("timestamp not filled")
	}
	if received.Sender.ID != "alice" || received.Sender.Type != "human" {
		t.Errorf("sender = %+v", received.Sender)
	}
	if received.Recipient.ID != "roo-code" || received.MessageType != "conversation" {
		t.Errorf("envelope = %+v", received)
	}
	if received.Content["text"] != "hello" || received.Content["role"] != "user" {
		t.Errorf("content = %v", received.Content)
	}
}

func TestSendKeepsCallerValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env Envelope
		json.NewDecoder(r.Body).Decode(&env)
		if env.MessageID != "m1" || env.Timestamp != "2024-01-01T00:00:00Z" {
			t.Errorf("caller values overwritten: %+v", env)
		}
		json.NewEncoder(w).Encode(SendResponse{Status: "message_received", MessageID: env.MessageID})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "alice")
	_, err := c.Send(&Envelope{
		MessageID: "m1",
		Timestamp: "2024-01-01T00:00:00Z",
		Recipient: Identity{ID: "bob"},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestErrorResponseSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"missing required field: sender"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "alice")
	_, err := c.Status()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "missing required field: sender") {
		t.Fatalf("error does not carry server message: %v", err)
	}
}

func TestMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages":[{"protocol":"acp-1.0","message_id":"m1","sender":{"id":"alice"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "alice")
	msgs, err := c.Messages()
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].MessageID != "m1" || msgs[0].Sender.ID != "alice" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}
