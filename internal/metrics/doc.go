// Package metrics implements the answer-quality measures used by the
// evaluation harness: a BLEU-like n-gram precision, ROUGE-1/2/L F1 and a
// word-overlap source relevance score.
//
// Every function is total. Degenerate input such as empty strings yields
// zero scores instead of an error, so an evaluation run always produces a
// complete record set.
package metrics
