package metrics

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tokens splits text on whitespace after NFC normalisation, so composed
// and decomposed accents compare equal.
func Tokens(text string) []string {
	return strings.Fields(norm.NFC.String(text))
}

// LowerTokens is Tokens over the lowercased text.
func LowerTokens(text string) []string {
	return Tokens(strings.ToLower(text))
}

// ngramCounts returns the multiset of n-grams of tokens.
func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return counts
}

// overlap returns the size of the multiset intersection of a and b.
func overlap(a, b map[string]int) int {
	total := 0
	for gram, ca := range a {
		if cb, ok := b[gram]; ok {
			total += min(ca, cb)
		}
	}
	return total
}

func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
