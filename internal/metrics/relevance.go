package metrics

// SourceRelevance returns the share of distinct question words that also
// occur in the source, case-insensitively. A question without words scores 0.
func SourceRelevance(question, source string) float64 {
	qWords := wordSet(question)
	if len(qWords) == 0 {
		return 0
	}
	sWords := wordSet(source)
	common := 0
	for w := range qWords {
		if _, ok := sWords[w]; ok {
			common++
		}
	}
	return float64(common) / float64(len(qWords))
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range LowerTokens(text) {
		set[w] = struct{}{}
	}
	return set
}
