package calculator

// Button labels that are not digits or arithmetic operators.
const (
	ButtonDecimal = "."
	ButtonSign    = "+/-"
	ButtonClear   = "C"
	ButtonEquals  = "="
)

// ButtonEvent maps a keypad label to the event it triggers. Labels outside
// the keypad report false.
func ButtonEvent(label string) (Event, bool) {
	switch label {
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return Digit(label), true
	case ButtonDecimal:
		return Decimal(), true
	case ButtonSign:
		return Negate(), true
	case ButtonClear:
		return Reset(), true
	case ButtonEquals:
		return Equals(), true
	}

	if op := Operator(label); op.IsArithmetic() {
		return Operate(op), true
	}

	return Event{}, false
}

// Buttons returns the keypad layout, row by row.
func Buttons() [][]string {
	return [][]string{
		{ButtonClear, "/", "*", "-"},
		{"7", "8", "9", "+"},
		{"4", "5", "6"},
		{"1", "2", "3", ButtonEquals},
		{"0", ButtonDecimal, ButtonSign},
	}
}
