package seating

import "strings"

// compareIndexNumbers orders student identifiers ascending with numeric
// awareness: when both sides are pure digit strings, "9" sorts before "10" and
// zero-padding is respected ("007" equals 7 numerically, the padded form wins
// the tie so ordering stays total). Non-numeric identifiers fall back to plain
// lexical comparison.
func compareIndexNumbers(a, b string) int {
	if allDigits(a) && allDigits(b) {
		ta, tb := trimLeadingZeros(a), trimLeadingZeros(b)
		if len(ta) != len(tb) {
			if len(ta) < len(tb) {
				return -1
			}
			return 1
		}
		if c := strings.Compare(ta, tb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func trimLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
