package protocol

import (
	"github.com/teslashibe/go-ctt/pkg/tracking"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewEventMessage creates an event message
func NewEventMessage(ev tracking.Event) (*Message, error) {
	return NewMessage(TypeEvent, ev)
}

// NewStatusMessage creates a status message
func NewStatusMessage(status StatusData) (*Message, error) {
	return NewMessage(TypeStatus, status)
}

// NewRemoteMessage creates a remote session message
func NewRemoteMessage(connected bool, peer string) (*Message, error) {
	return NewMessage(TypeRemote, RemoteData{Connected: connected, Peer: peer})
}

// NewTrialMessage creates a trial summary message
func NewTrialMessage(summary TrialData) (*Message, error) {
	return NewMessage(TypeTrial, summary)
}

// NewCommandMessage creates a command message
func NewCommandMessage(command string) (*Message, error) {
	return NewMessage(TypeCommand, CommandData{Command: command})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string, ts int64) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id, Timestamp: ts})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// NewErrorMessage creates an error message
func NewErrorMessage(text string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: text})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetEventData extracts an engine event from a message
func (m *Message) GetEventData() (*EventData, error) {
	var data EventData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStatusData extracts a status snapshot from a message
func (m *Message) GetStatusData() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetRemoteData extracts remote session data from a message
func (m *Message) GetRemoteData() (*RemoteData, error) {
	var data RemoteData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTrialData extracts a trial summary from a message
func (m *Message) GetTrialData() (*TrialData, error) {
	var data TrialData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCommandData extracts a command from a message
func (m *Message) GetCommandData() (*CommandData, error) {
	var data CommandData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
