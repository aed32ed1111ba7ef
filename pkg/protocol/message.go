// Package protocol defines the WebSocket messages of the live event feed.
// The status server emits them; ctt-monitor and browser dashboards consume
// them and may send commands back.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-ctt/pkg/session"
	"github.com/teslashibe/go-ctt/pkg/tracking"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Server → client messages
	TypeEvent  MessageType = "event"  // Engine state change
	TypeStatus MessageType = "status" // Full engine snapshot
	TypeRemote MessageType = "remote" // Remote control session change
	TypeTrial  MessageType = "trial"  // Finished trial summary

	// Client → server messages
	TypeCommand MessageType = "command" // Protocol command (start, stop, lambda N, exit)

	// Bidirectional
	TypePing  MessageType = "ping"  // Health check
	TypePong  MessageType = "pong"  // Health check response
	TypeError MessageType = "error" // Rejected client message
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// EventData is an engine event.
type EventData = tracking.Event

// StatusData is an engine snapshot plus the surrounding application state.
type StatusData struct {
	tracking.Snapshot
	RemoteConnected bool   `json:"remote_connected"`
	RemotePeer      string `json:"remote_peer,omitempty"`
	ToneEnabled     bool   `json:"tone_enabled"`
	AudioBackend    string `json:"audio_backend,omitempty"`
	InputDevice     string `json:"input_device,omitempty"`
	Records         int    `json:"records"`
}

// RemoteData reports the remote control session.
type RemoteData struct {
	Connected bool   `json:"connected"`
	Peer      string `json:"peer,omitempty"`
}

// TrialData is the summary of a finished trial.
type TrialData = session.Summary

// =============================================================================
// Client → Server Message Types
// =============================================================================

// CommandData carries one protocol command in its text form.
type CommandData struct {
	Command string `json:"command"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}

// ErrorData reports a rejected client message.
type ErrorData struct {
	Message string `json:"message"`
}
