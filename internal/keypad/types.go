package keypad

import (
	"time"

	"reactive-calculator/internal/calculator"
	"reactive-calculator/internal/session"
)

// PressRequest is the JSON body for POST /api/sessions/{id}/press.
type PressRequest struct {
	Button string `json:"button"` // keypad label: "0".."9", ".", "+/-", "C", "+", "-", "*", "/", "="
}

// EventRequest is the JSON body for POST /api/sessions/{id}/events.
type EventRequest struct {
	Kind  calculator.EventKind `json:"kind"`
	Value string               `json:"value,omitempty"`
}

// SessionResponse is the JSON response describing one session.
type SessionResponse struct {
	ID        string              `json:"id"`
	Input     string              `json:"input"`
	Operand1  string              `json:"operand1"`
	Operation calculator.Operator `json:"operation"`
	Display   string              `json:"display"`
	Seq       uint64              `json:"seq"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// TapeResponse is the JSON response for GET /api/sessions/{id}/tape.
type TapeResponse struct {
	ID          string               `json:"id"`
	Transitions []session.Transition `json:"transitions"`
}

// ButtonsResponse is the JSON response for GET /api/buttons.
type ButtonsResponse struct {
	Rows [][]string `json:"rows"`
}

func newSessionResponse(s session.Snapshot) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Input:     s.State.Input,
		Operand1:  s.State.Operand1,
		Operation: s.State.Operation,
		Display:   s.Display,
		Seq:       s.Seq,
		UpdatedAt: s.UpdatedAt,
	}
}
