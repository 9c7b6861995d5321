package common

import (
	"math"
	"strings"
)

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Round1 rounds v to one decimal place, the precision used for all
// published unit conversions.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
