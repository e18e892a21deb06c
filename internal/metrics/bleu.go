package metrics

// MaxNGram is the highest n-gram order used by BLEU.
const MaxNGram = 4

// BLEU returns a simplified BLEU score: for n = 1 up to min(4, candidate
// length) it takes the clipped n-gram matches over the candidate n-gram
// count and averages across n. No brevity penalty is applied.
// Empty candidate or reference yields 0.
func BLEU(candidate, reference string) float64 {
	cand := Tokens(candidate)
	ref := Tokens(reference)
	if len(cand) == 0 || len(ref) == 0 {
		return 0
	}

	orders := min(MaxNGram, len(cand))
	sum := 0.0
	for n := 1; n <= orders; n++ {
		candGrams := ngramCounts(cand, n)
		count := total(candGrams)
		if count == 0 {
			continue
		}
		sum += float64(overlap(candGrams, ngramCounts(ref, n))) / float64(count)
	}
	return sum / float64(orders)
}
