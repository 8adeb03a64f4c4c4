package calculator

import (
	"math"
	"strings"
	"testing"
)

func applyAll(s State, events ...Event) State {
	for _, e := range events {
		s = Apply(s, e)
	}
	return s
}

func assertState(t *testing.T, want, got State) {
	t.Helper()
	if got != want {
		t.Fatalf("expected state %+v, got %+v", want, got)
	}
}

func TestPushDigitConcatenatesInOrder(t *testing.T) {
	tests := [][]string{
		{"1"},
		{"0", "0", "7"},
		{"9", "8", "7", "6", "5", "4", "3", "2", "1", "0"},
	}

	for _, digits := range tests {
		t.Run(strings.Join(digits, ""), func(t *testing.T) {
			s := Initial()
			for _, d := range digits {
				s = Apply(s, Digit(d))
			}

			if want := strings.Join(digits, ""); s.Input != want {
				t.Fatalf("expected input %q, got %q", want, s.Input)
			}
		})
	}
}

func TestPushDecimalKeepsSinglePointAtEnd(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   string
	}{
		{name: "empty", events: []Event{Decimal()}, want: "."},
		{name: "repeated", events: []Event{Digit("4"), Decimal(), Decimal(), Decimal()}, want: "4."},
		{name: "moves to end", events: []Event{Digit("3"), Decimal(), Digit("5"), Decimal()}, want: "35."},
		{name: "fraction", events: []Event{Digit("3"), Decimal(), Digit("5")}, want: "3.5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := applyAll(Initial(), tc.events...)
			if s.Input != tc.want {
				t.Fatalf("expected input %q, got %q", tc.want, s.Input)
			}
			if n := strings.Count(s.Input, "."); n != 1 {
				t.Fatalf("expected exactly one decimal point, got %d in %q", n, s.Input)
			}
		})
	}
}

func TestToggleSign(t *testing.T) {
	t.Run("empty input is a no-op", func(t *testing.T) {
		s := State{Operand1: "3", Operation: Add}
		assertState(t, s, Apply(s, Negate()))
	})

	t.Run("negates", func(t *testing.T) {
		s := Apply(State{Input: "12"}, Negate())
		if s.Input != "-12" {
			t.Fatalf("expected %q, got %q", "-12", s.Input)
		}
	})

	t.Run("trailing decimal is reformatted", func(t *testing.T) {
		s := Apply(State{Input: "3."}, Negate())
		if s.Input != "-3" {
			t.Fatalf("expected %q, got %q", "-3", s.Input)
		}
	})

	for _, input := range []string{"3", "2.5", "-7", "0.1", "1000000", "0"} {
		t.Run("round trip "+input, func(t *testing.T) {
			s := applyAll(State{Input: input}, Negate(), Negate())
			if got, want := parseNumber(s.Input), parseNumber(input); got != want {
				t.Fatalf("expected %v after two toggles, got %v (%q)", want, got, s.Input)
			}
		})
	}
}

func TestClearAlwaysReturnsInitialState(t *testing.T) {
	states := []State{
		Initial(),
		{Input: "3"},
		{Operand1: "3", Operation: Add},
		{Input: "4", Operand1: "3", Operation: Multiply},
		{Operand1: "7"},
		{Input: "NaN"},
	}

	for _, s := range states {
		assertState(t, Initial(), Apply(s, Reset()))
	}
}

func TestSolveScenario(t *testing.T) {
	s := Apply(Initial(), Digit("3"))
	assertState(t, State{Input: "3"}, s)

	s = Apply(s, Operate(Add))
	assertState(t, State{Operand1: "3", Operation: Add}, s)

	s = Apply(s, Digit("4"))
	assertState(t, State{Input: "4", Operand1: "3", Operation: Add}, s)

	s = Apply(s, Equals())
	assertState(t, State{Input: "7"}, s)
}

func TestChainingSolvesLeftToRight(t *testing.T) {
	s := applyAll(Initial(), Digit("3"), Operate(Add), Digit("4"), Operate(Add))
	assertState(t, State{Operand1: "7", Operation: Add}, s)

	s = applyAll(s, Digit("5"), Equals())
	assertState(t, State{Input: "12"}, s)

	s = applyAll(Initial(), Digit("2"), Operate(Add), Digit("3"), Operate(Multiply), Digit("4"), Equals())
	assertState(t, State{Input: "20"}, s)
}

func TestOperatorReplacesPendingOperatorWithoutInput(t *testing.T) {
	s := applyAll(Initial(), Digit("8"), Operate(Add), Operate(Subtract))

	// No new input: the empty input is carried into operand1.
	assertState(t, State{Operand1: "", Operation: Subtract}, s)
}

func TestFirstPressIsOperator(t *testing.T) {
	for _, op := range []Operator{Add, Subtract, Multiply, Divide} {
		t.Run(string(op), func(t *testing.T) {
			assertState(t, State{Operation: op}, Apply(Initial(), Operate(op)))
		})
	}
}

func TestSolveWithEmptyInputIsNoOp(t *testing.T) {
	states := []State{
		Initial(),
		{Operand1: "3", Operation: Add},
		{Operand1: "3"},
		{Operation: Divide},
	}

	for _, s := range states {
		assertState(t, s, Apply(s, Equals()))
	}
}

func TestSolveArithmetic(t *testing.T) {
	tests := []struct {
		a, b string
		op   Operator
		want string
	}{
		{a: "3", b: "4", op: Add, want: "7"},
		{a: "3", b: "4", op: Subtract, want: "-1"},
		{a: "3", b: "4", op: Multiply, want: "12"},
		{a: "3", b: "4", op: Divide, want: "0.75"},
		{a: "0.1", b: "0.2", op: Add, want: "0.30000000000000004"},
		{a: "2.", b: ".5", op: Multiply, want: "1"},
		{a: "5", b: "0", op: Divide, want: "Infinity"},
		{a: "-5", b: "0", op: Divide, want: "-Infinity"},
		{a: "0", b: "0", op: Divide, want: "NaN"},
		{a: "", b: "4", op: Add, want: "NaN"},
		{a: "Infinity", b: "1", op: Subtract, want: "Infinity"},
	}

	for _, tc := range tests {
		t.Run(tc.a+string(tc.op)+tc.b, func(t *testing.T) {
			s := Apply(State{Input: tc.b, Operand1: tc.a, Operation: tc.op}, Equals())
			assertState(t, State{Input: tc.want}, s)
		})
	}
}

func TestSolveUnknownOperatorIsNoOp(t *testing.T) {
	s := State{Input: "4", Operand1: "3", Operation: Operator("%")}
	assertState(t, s, Apply(s, Equals()))

	// Without a known operator only the input survives as the new operand.
	s = Apply(s, Operate(Add))
	assertState(t, State{Operand1: "4", Operation: Add}, s)
}

func TestOperandWithoutOperationIsPreserved(t *testing.T) {
	// Reachable transiently; nothing repairs it.
	s := State{Input: "9", Operand1: "3"}

	assertState(t, s, Apply(s, Equals()))
	assertState(t, State{Operand1: "9", Operation: Divide}, Apply(s, Operate(Divide)))
}

func TestUnknownEventKindIsNoOp(t *testing.T) {
	s := State{Input: "1", Operand1: "2", Operation: Add}
	assertState(t, s, Apply(s, Event{Kind: EventKind("memory_recall")}))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	before := State{Input: "4", Operand1: "3", Operation: Add}
	s := before

	_ = Apply(s, Equals())
	_ = Apply(s, Reset())

	assertState(t, before, s)
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{state: Initial(), want: "  "},
		{state: State{Operation: Add}, want: " + "},
		{state: State{Input: "7"}, want: "  7"},
		{state: State{Input: "4", Operand1: "3", Operation: Multiply}, want: "3 * 4"},
		{state: State{Operand1: "3", Operation: Subtract}, want: "3 - "},
	}

	for _, tc := range tests {
		if got := Display(tc.state); got != tc.want {
			t.Fatalf("state %+v: expected %q, got %q", tc.state, tc.want, got)
		}
	}
}

func TestDivisionByZeroDoesNotPanic(t *testing.T) {
	s := Apply(State{Input: "0", Operand1: "5", Operation: Divide}, Equals())

	if !math.IsInf(parseNumber(s.Input), 1) {
		t.Fatalf("expected positive infinity, got %q", s.Input)
	}
}
