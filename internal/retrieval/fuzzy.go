package retrieval

import (
	"unicode/utf8"

	"github.com/adrg/strutil/metrics"
)

// indel is a Levenshtein metric where a substitution costs one deletion plus
// one insertion, which makes it the InDel distance used by the ratio scores.
var indel = &metrics.Levenshtein{
	CaseSensitive: true,
	InsertCost:    1,
	DeleteCost:    1,
	ReplaceCost:   2,
}

// Ratio returns the normalized InDel similarity of a and b on a 0-100 scale.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	d := indel.Distance(a, b)
	return 100 * (1 - float64(d)/float64(total))
}

// PartialRatio returns the best Ratio of the shorter string against every
// same-length window of the longer one, including windows clipped at either edge.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}

	needle := string(short)
	m, n := len(short), len(long)
	best := 0.0
	for start := -(m - 1); start < n; start++ {
		lo, hi := start, start+m
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		if score := Ratio(needle, string(long[lo:hi])); score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}
