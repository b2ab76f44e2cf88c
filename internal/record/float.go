package record

import (
	"math"
	"strconv"
	"strings"
)

// Float is a float64 that always serializes with a fractional part or an
// exponent (0.0, 12.5, 1e+16, 1.5e-05). Integral floats therefore never
// collapse to integer literals, so any verifier that parses a record and
// re-serializes it canonically reproduces the same bytes.
// Non-finite values are written as 0.0.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	return []byte(FormatFloat(float64(f))), nil
}

// FormatFloat renders v using the shortest round-trip representation,
// switching to exponent form below 1e-4 and at or above 1e16.
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.0"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
