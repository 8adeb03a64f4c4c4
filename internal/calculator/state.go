// Package calculator implements the keypad calculator as a pure state machine.
//
// A State is never mutated in place: Apply consumes the current state and one
// Event and returns the next state. The hosting application owns the single
// authoritative copy and replaces it after every event.
package calculator

import "fmt"

// Operator is a pending binary operator.
type Operator string

const (
	None     Operator = ""
	Add      Operator = "+"
	Subtract Operator = "-"
	Multiply Operator = "*"
	Divide   Operator = "/"
)

// IsArithmetic reports whether op is one of the four operators Solve knows.
func (op Operator) IsArithmetic() bool {
	switch op {
	case Add, Subtract, Multiply, Divide:
		return true
	}
	return false
}

// State is the whole calculator session.
//
// Input is the number currently being typed. Operand1 holds the committed
// left-hand operand while Operation waits for its right-hand side. Values
// stay textual until an operator or Solve forces them through float64.
type State struct {
	Input     string   `json:"input"`
	Operand1  string   `json:"operand1"`
	Operation Operator `json:"operation"`
}

// Initial returns the state every session starts from.
func Initial() State {
	return State{}
}

// Pending reports whether s holds a complete equation ready to be solved.
func (s State) Pending() bool {
	return s.Operand1 != "" && s.Operation != None && s.Input != ""
}

// Value is the numeric reading of Input, NaN when it does not parse.
func (s State) Value() float64 {
	return parseNumber(s.Input)
}

// Display renders s as "{operand1} {operation} {input}". Empty fields are
// substituted verbatim, so the initial state renders as two spaces.
func Display(s State) string {
	return fmt.Sprintf("%s %s %s", s.Operand1, s.Operation, s.Input)
}
