package lineitem

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber leniently parses a user-entered number. It accepts either "."
// or "," as the decimal separator; when both appear, the last one is the
// decimal separator and the other groups thousands. Spaces used as thousand
// separators are ignored. Empty, non-numeric and non-finite input yields 0.
func ParseNumber(s string) float64 {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0
	}

	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		// "12,5" or "1.234,56": the comma is the decimal separator.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
