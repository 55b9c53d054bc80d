// Package amount converts between human-readable magnitude strings ("10m",
// "250k") and integer currency units.
package amount

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidAmount indicates that a magnitude string could not be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

const (
	thousand = 1_000
	million  = 1_000_000
)

// Format renders an integer amount as a short cash-stack string: values of a
// million and above end in "m", values of a thousand and above end in "k",
// anything smaller is the plain decimal string. Rounding follows %.0f
// semantics (round half to even).
func Format(v int64) string {
	switch {
	case v >= million:
		return fmt.Sprintf("%.0fm", float64(v)/million)
	case v >= thousand:
		return fmt.Sprintf("%.0fk", float64(v)/thousand)
	default:
		return strconv.FormatInt(v, 10)
	}
}

// Parse converts a magnitude string back to integer currency units. A trailing
// "m" or "k" (case-insensitive) scales the numeric prefix by a million or a
// thousand, truncating any fractional remainder; otherwise the whole string
// must be a plain integer. Non-finite prefixes and magnitudes outside the
// int64 range fail with ErrInvalidAmount.
//
// Parse(Format(x)) is lossy on purpose: Format("1234567") yields "1m" and
// parses back to 1000000.
func Parse(text string) (int64, error) {
	if text == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	var multiplier int64
	switch text[len(text)-1] {
	case 'm', 'M':
		multiplier = million
	case 'k', 'K':
		multiplier = thousand
	}

	if multiplier == 0 {
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
		}
		return v, nil
	}

	prefix, err := strconv.ParseFloat(text[:len(text)-1], 64)
	if err != nil || math.IsNaN(prefix) || math.IsInf(prefix, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}

	// int64 conversion is only defined for values in range.
	scaled := prefix * float64(multiplier)
	if scaled >= math.MaxInt64 || scaled < math.MinInt64 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}

	return int64(scaled), nil
}
