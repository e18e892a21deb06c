package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBLEU_Self(t *testing.T) {
	for _, text := range []string{
		"hay 10000 clientes únicos",
		"uno",
		"the average balance is 76485.89",
	} {
		assert.InDelta(t, 1.0, BLEU(text, text), 1e-9, text)
	}
}

func TestBLEU_Empty(t *testing.T) {
	assert.Equal(t, 0.0, BLEU("", "reference text"))
	assert.Equal(t, 0.0, BLEU("candidate text", ""))
	assert.Equal(t, 0.0, BLEU("   ", "  "))
}

func TestBLEU_Partial(t *testing.T) {
	// unigrams 2/3, bigrams 1/2, trigrams 0/1 -> mean 7/18
	got := BLEU("a b c", "a b d")
	assert.InDelta(t, (2.0/3+1.0/2+0)/3, got, 1e-9)
}

func TestBLEU_ClipsRepeatedWords(t *testing.T) {
	// "the" appears twice in the candidate but once in the reference.
	got := BLEU("the the", "the cat")
	assert.InDelta(t, (1.0/2+0)/2, got, 1e-9)
}

func TestBLEU_NormalisesAccents(t *testing.T) {
	composed := "cami\u00f3n"
	decomposed := "camio\u0301n"
	assert.InDelta(t, 1.0, BLEU(composed, decomposed), 1e-9)
}

func TestBLEU_CaseSensitive(t *testing.T) {
	assert.Equal(t, 0.0, BLEU("Clientes", "clientes"))
	assert.InDelta(t, 1.0, Rouge("Clientes", "clientes").Rouge1, 1e-9, "rouge folds case")
}

func TestBLEU_NoBrevityPenalty(t *testing.T) {
	// A short exact prefix of a long reference scores 1.
	assert.InDelta(t, 1.0, BLEU("hay 10000", "hay 10000 clientes en el fichero"), 1e-9)
}

func TestRouge_Identical(t *testing.T) {
	s := Rouge("the churn rate is 20.37%", "the churn rate is 20.37%")
	assert.InDelta(t, 1.0, s.Rouge1, 1e-9)
	assert.InDelta(t, 1.0, s.Rouge2, 1e-9)
	assert.InDelta(t, 1.0, s.RougeL, 1e-9)
}

func TestRouge_IdenticalSingleWord(t *testing.T) {
	s := Rouge("Sí", "sí")
	assert.Equal(t, RougeScores{Rouge1: 1, Rouge2: 1, RougeL: 1}, s)
}

func TestRouge_Empty(t *testing.T) {
	assert.Equal(t, RougeScores{}, Rouge("", "reference"))
	assert.Equal(t, RougeScores{}, Rouge("candidate", ""))
}

func TestRouge_Disjoint(t *testing.T) {
	assert.Equal(t, RougeScores{}, Rouge("alpha beta", "gamma delta"))
}

func TestRouge_Partial(t *testing.T) {
	// cand: a b c d, ref: a c d e
	// unigram overlap 3 -> P=R=3/4 -> F=0.75
	// bigrams cand {ab,bc,cd}, ref {ac,cd,de}: overlap 1 -> F=1/3
	// LCS a c d = 3 -> F=0.75
	s := Rouge("a b c d", "a c d e")
	assert.InDelta(t, 0.75, s.Rouge1, 1e-9)
	assert.InDelta(t, 1.0/3, s.Rouge2, 1e-9)
	assert.InDelta(t, 0.75, s.RougeL, 1e-9)
}

func TestLCS(t *testing.T) {
	assert.Equal(t, 0, lcs(nil, []string{"a"}))
	assert.Equal(t, 2, lcs([]string{"a", "x", "b"}, []string{"a", "b"}))
	assert.Equal(t, 3, lcs([]string{"a", "b", "c"}, []string{"a", "b", "c"}))
}

func TestSourceRelevance(t *testing.T) {
	tests := []struct {
		name     string
		question string
		source   string
		want     float64
	}{
		{"subset", "Cuántos clientes", "cuántos clientes hay en total", 1.0},
		{"disjoint", "balance medio", "tasa de abandono", 0.0},
		{"half", "balance medio", "el balance total", 0.5},
		{"case insensitive", "CHURN Rate", "churn rate", 1.0},
		{"empty question", "", "anything", 0.0},
		{"empty source", "question", "", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SourceRelevance(tt.question, tt.source), 1e-9)
		})
	}
}

func TestSourceRelevance_Monotonic(t *testing.T) {
	q := "a b c d"
	prev := -1.0
	for _, src := range []string{"", "a", "a b", "a b c", "a b c d"} {
		got := SourceRelevance(q, src)
		assert.Greater(t, got, prev)
		prev = got
	}
}
