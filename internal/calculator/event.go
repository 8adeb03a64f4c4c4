package calculator

// EventKind identifies one of the discrete keypad inputs.
type EventKind string

const (
	PushDigit   EventKind = "push_digit"
	PushDecimal EventKind = "push_decimal"
	ToggleSign  EventKind = "toggle_sign"
	Clear       EventKind = "clear"
	SetOperator EventKind = "set_operator"
	Solve       EventKind = "solve"
)

// Event is a single input applied to a State. Value carries the digit for
// PushDigit and the operator for SetOperator; other kinds ignore it.
type Event struct {
	Kind  EventKind `json:"kind"`
	Value string    `json:"value,omitempty"`
}

// Digit appends d to the input.
func Digit(d string) Event {
	return Event{Kind: PushDigit, Value: d}
}

// Decimal appends a decimal point to the input.
func Decimal() Event {
	return Event{Kind: PushDecimal}
}

// Negate flips the sign of the input.
func Negate() Event {
	return Event{Kind: ToggleSign}
}

// Reset returns to the initial state.
func Reset() Event {
	return Event{Kind: Clear}
}

// Operate selects op, solving any pending equation first.
func Operate(op Operator) Event {
	return Event{Kind: SetOperator, Value: string(op)}
}

// Equals solves the pending equation.
func Equals() Event {
	return Event{Kind: Solve}
}
