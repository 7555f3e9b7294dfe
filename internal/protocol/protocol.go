// Package protocol defines the JSON shapes exchanged with clients. Every frame
// is an envelope {"type": ..., "payload": ...}.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Message is anything the server sends to a client.
type Message interface {
	Type() string
}

// Sink is a player's outbound channel. Send never blocks; false means the
// message was dropped.
type Sink interface {
	Send(Message) bool
}

// Envelope is the frame both directions share.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps m in an envelope.
func Encode(m Message) ([]byte, error) {
	b, err := json.Marshal(struct {
		Type    string  `json:"type"`
		Payload Message `json:"payload"`
	}{m.Type(), m})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Type(), err)
	}
	return b, nil
}

// DecodeEnvelope splits a frame into type and raw payload.
func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}
