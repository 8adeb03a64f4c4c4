package session

import (
	"time"

	"reactive-calculator/internal/calculator"
)

// Snapshot is a settled view of one session after a transition.
type Snapshot struct {
	ID        string           `json:"id"`
	State     calculator.State `json:"state"`
	Display   string           `json:"display"`
	Seq       uint64           `json:"seq"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Transition is one applied event, as recorded on the session tape.
type Transition struct {
	Seq     uint64           `json:"seq"`
	Event   calculator.Event `json:"event"`
	Display string           `json:"display"`
	At      time.Time        `json:"at"`
}
