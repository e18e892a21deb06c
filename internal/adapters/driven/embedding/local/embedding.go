// Package local provides an offline embedding service based on feature
// hashing. It needs no model download and is fully deterministic, which
// makes index rebuilds reproducible.
package local

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "hashing-384"
	DefaultDimensions = 384
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// EmbeddingService hashes unigrams and bigrams into a fixed number of
// signed buckets and L2-normalises the result.
type EmbeddingService struct {
	dimensions int
	stopwords  map[string]struct{}
}

// NewEmbeddingService creates a hashing embedder. dimensions <= 0 uses
// DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions, stopwords: defaultStopwords()}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(text)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	if s.dimensions == DefaultDimensions {
		return DefaultModel
	}
	return "hashing-custom"
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) vector(text string) []float32 {
	vec := make([]float32, s.dimensions)
	tokens := s.tokenize(text)
	for i, tok := range tokens {
		s.add(vec, tok, 1)
		if i > 0 {
			s.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	v := blas32.Vector{N: len(vec), Inc: 1, Data: vec}
	if n := blas32.Nrm2(v); n > 0 {
		blas32.Scal(1/n, v)
	}
	return vec
}

func (s *EmbeddingService) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(len(vec)))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// tokenize lowercases, strips accents and drops stopwords, so "Únicos"
// and "unicos" hash to the same bucket.
func (s *EmbeddingService) tokenize(text string) []string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(text),
	)
	if err != nil {
		folded = strings.ToLower(text)
	}
	raw := tokenPattern.FindAllString(folded, -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := s.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		// English
		"a", "an", "the", "and", "or", "of", "to", "in", "on", "at", "by", "for",
		"with", "is", "are", "was", "were", "be", "it", "this", "that", "from", "as",
		// Spanish
		"el", "la", "los", "las", "un", "una", "unos", "unas", "y", "o", "de", "del",
		"en", "con", "por", "para", "que", "es", "son", "al", "se", "lo", "su", "sus",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
