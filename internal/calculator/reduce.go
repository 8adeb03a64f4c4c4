package calculator

import "strings"

// Apply returns the state that follows s after e. It never fails: unknown
// event kinds leave the state unchanged and bad numbers turn into NaN.
func Apply(s State, e Event) State {
	switch e.Kind {
	case PushDigit:
		s.Input += e.Value
		return s

	case PushDecimal:
		s.Input = strings.ReplaceAll(s.Input, ".", "") + "."
		return s

	case ToggleSign:
		if s.Input == "" {
			return s
		}
		s.Input = formatNumber(-parseNumber(s.Input))
		return s

	case Clear:
		return Initial()

	case SetOperator:
		return setOperator(s, Operator(e.Value))

	case Solve:
		return solve(s)
	}

	return s
}

// setOperator folds a pending equation into the new left-hand operand so
// chains evaluate left to right: 3 + 4 + 5 is (3+4)+5. Without a pending
// equation the current input, empty or not, becomes the operand.
func setOperator(s State, op Operator) State {
	operand := s.Input
	if s.Pending() {
		operand = solve(s).Input
	}

	return State{
		Input:     "",
		Operand1:  operand,
		Operation: op,
	}
}

func solve(s State) State {
	if s.Input == "" {
		return s
	}

	a := parseNumber(s.Operand1)
	b := parseNumber(s.Input)

	var result float64
	switch s.Operation {
	case Add:
		result = a + b
	case Subtract:
		result = a - b
	case Multiply:
		result = a * b
	case Divide:
		// IEEE semantics: x/0 is ±Inf, 0/0 is NaN.
		result = a / b
	default:
		return s
	}

	return State{Input: formatNumber(result)}
}
