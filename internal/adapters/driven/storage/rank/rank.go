// Package rank scores stored vectors against a query for the brute-force
// stores.
package rank

import (
	"sort"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	x := blas32.Vector{N: len(a), Inc: 1, Data: a}
	y := blas32.Vector{N: len(b), Inc: 1, Data: b}
	na, nb := float64(blas32.Nrm2(x)), float64(blas32.Nrm2(y))
	if na == 0 || nb == 0 {
		return 0
	}
	return blas32.DDot(x, y) / (na * nb)
}

// TopK orders hits by descending similarity, then ascending position, and
// keeps the first k. hits is sorted in place.
func TopK(hits []domain.ScoredDocument, k int) []domain.ScoredDocument {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Position < hits[j].Position
	})
	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
