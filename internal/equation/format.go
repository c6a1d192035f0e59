package equation

import (
	"math"
	"strconv"
	"strings"
)

// FormatCoefficient renders a float the way the reference scripts were
// produced: shortest round-trip digits, always with a decimal point, and
// scientific notation only for exponents below -4 or from 16 upwards
// (1.0, 0.5, 1e-05, 1e+16).
func FormatCoefficient(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
