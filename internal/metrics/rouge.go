package metrics

import (
	"slices"

	"go.uber.org/zap"
)

// RougeScores holds F1 values at unigram, bigram and LCS granularity.
type RougeScores struct {
	Rouge1 float64
	Rouge2 float64
	RougeL float64
}

// Rouge scores candidate against reference. Tokens are lowercased.
// Empty input, or any failure while scoring, yields all zeros.
func Rouge(candidate, reference string) (scores RougeScores) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("rouge scoring failed", zap.Any("panic", r))
			scores = RougeScores{}
		}
	}()

	cand := LowerTokens(candidate)
	ref := LowerTokens(reference)
	if len(cand) == 0 || len(ref) == 0 {
		return RougeScores{}
	}

	identical := slices.Equal(cand, ref)
	return RougeScores{
		Rouge1: rougeN(cand, ref, 1, identical),
		Rouge2: rougeN(cand, ref, 2, identical),
		RougeL: rougeL(cand, ref),
	}
}

// rougeN is the n-gram overlap F1. Identical sequences too short to
// contain an n-gram score 1.
func rougeN(cand, ref []string, n int, identical bool) float64 {
	candGrams := ngramCounts(cand, n)
	refGrams := ngramCounts(ref, n)
	candTotal, refTotal := total(candGrams), total(refGrams)
	if candTotal == 0 || refTotal == 0 {
		if identical {
			return 1
		}
		return 0
	}
	matches := overlap(candGrams, refGrams)
	return f1(float64(matches)/float64(candTotal), float64(matches)/float64(refTotal))
}

func rougeL(cand, ref []string) float64 {
	l := lcs(cand, ref)
	if l == 0 {
		return 0
	}
	return f1(float64(l)/float64(len(cand)), float64(l)/float64(len(ref)))
}

// lcs returns the length of the longest common subsequence using two rows.
func lcs(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
		clear(curr)
	}
	return prev[len(b)]
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
