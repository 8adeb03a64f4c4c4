package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"reactive-calculator/internal/session"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a server-originated message with the current timestamp.
func NewMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		Type:      msgType,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Server → Client message types.
const (
	TypeStateUpdate  = "state.update"
	TypeAssetsReload = "assets.reload"
	TypeError        = "error"
)

// Client → Server message types.
const (
	TypeButtonPress  = "button.press"
	TypeStateRequest = "state.request"
)

// Error codes.
const (
	ErrInvalidMessage  = "INVALID_MESSAGE"
	ErrUnknownButton   = "UNKNOWN_BUTTON"
	ErrSessionNotFound = "SESSION_NOT_FOUND"
)

// Server → Client payloads.

type StateUpdatePayload struct {
	SessionID string `json:"sessionId"`
	Input     string `json:"input"`
	Operand1  string `json:"operand1"`
	Operation string `json:"operation"`
	Display   string `json:"display"`
	Seq       uint64 `json:"seq"`
}

type AssetsReloadPayload struct {
	Path string `json:"path,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Client → Server payloads.

type ButtonPressPayload struct {
	Button string `json:"button"`
}

// NewStateUpdate builds a state.update message from a settled snapshot.
func NewStateUpdate(s session.Snapshot) (*Message, error) {
	return NewMessage(TypeStateUpdate, StateUpdatePayload{
		SessionID: s.ID,
		Input:     s.State.Input,
		Operand1:  s.State.Operand1,
		Operation: string(s.State.Operation),
		Display:   s.Display,
		Seq:       s.Seq,
	})
}
