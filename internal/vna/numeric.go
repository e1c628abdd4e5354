package vna

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatE12 formats v in scientific notation with 12 fractional digits and a
// signed, at least three digit exponent, e.g. 1.000000000000E+009.
// The output does not depend on the process locale.
func FormatE12(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'E', 12, 64)
	}

	s := strconv.FormatFloat(v, 'E', 12, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	sign, digits := exp[:1], exp[1:]
	for len(digits) < 3 {
		digits = "0" + digits
	}
	return mantissa + "E" + sign + digits
}

// FormatPlain formats v as a plain decimal with the fewest digits that
// represent it exactly, e.g. 40, 1234.5 or -10.
func FormatPlain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseFloat parses an instrument numeric reply, ignoring surrounding whitespace
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, protocolErrorf("parse float", "%q", s)
	}
	return v, nil
}

// ParseInt parses an integer reply. Replies in floating point notation
// (e.g. "1.010000000000E+003") are accepted when they hold an integral value.
func ParseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, protocolErrorf("parse int", "%q", s)
	}
	return int(v), nil
}

// Linspace returns n evenly spaced values from start to stop inclusive
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{start}
	}

	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// Logspace returns n logarithmically spaced values from start to stop
// inclusive. start and stop are frequencies, not exponents.
func Logspace(start, stop float64, n int) []float64 {
	exps := Linspace(math.Log10(start), math.Log10(stop), n)
	for i, e := range exps {
		exps[i] = math.Pow(10, e)
	}
	if n > 1 {
		exps[0], exps[n-1] = start, stop
	}
	return exps
}

// SegmentFrequencies concatenates the linear frequency grids of the
// segments. A table spanning more than MaxSweepPoints is a ProtocolError.
func SegmentFrequencies(segments []Segment) ([]float64, error) {
	var total int
	for i, s := range segments {
		total += s.Points()
		if total > MaxSweepPoints {
			return nil, protocolErrorf("segment table", "segment %d exceeds %d points: %g..%g step %g",
				i+1, MaxSweepPoints, s.Start, s.Stop, s.Step)
		}
	}

	out := make([]float64, 0, total)
	for _, s := range segments {
		out = append(out, Linspace(s.Start, s.Stop, s.Points())...)
	}
	return out, nil
}

// FormatHz formats a frequency with an SI prefix, e.g. "1.5 GHz"
func FormatHz(hz float64) string {
	return humanize.SIWithDigits(hz, 6, "Hz")
}
