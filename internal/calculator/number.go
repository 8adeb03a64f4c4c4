package calculator

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// parseNumber is deliberately permissive. Overflow keeps the ±Inf that
// strconv reports; anything else it cannot read becomes NaN.
func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// formatNumber renders f the way the keypad display has always shown
// numbers: shortest round-trip digits, plain decimals between 1e-6 and 1e21,
// exponent form outside that range.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	// strconv pads the exponent to two digits ("1e-07").
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}
