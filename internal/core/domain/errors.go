package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDataFormat indicates a source file is missing, empty or lacks
	// required columns. Fatal to ingestion and never retried.
	ErrDataFormat = errors.New("data format error")

	// ErrConfiguration indicates settings outside their permitted ranges.
	// Raised before any I/O takes place.
	ErrConfiguration = errors.New("configuration error")

	// ErrIndexUnavailable indicates a query was issued before the vector
	// index was successfully built.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrAnswerGeneration indicates the text-generation capability failed
	// for a question. See AnswerGenerationError.
	ErrAnswerGeneration = errors.New("answer generation failed")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// AnswerGenerationError carries the question whose generation failed.
type AnswerGenerationError struct {
	Question string
	Err      error
}

func (e *AnswerGenerationError) Error() string {
	if e.Err == nil {
		return "answer generation failed for question " + quote(e.Question)
	}
	return "answer generation failed for question " + quote(e.Question) + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *AnswerGenerationError) Unwrap() error {
	return e.Err
}

// Is reports ErrAnswerGeneration as a match so callers can test with errors.Is.
func (e *AnswerGenerationError) Is(target error) bool {
	return target == ErrAnswerGeneration
}

func quote(s string) string {
	const limit = 80
	r := []rune(s)
	if len(r) > limit {
		s = string(r[:limit]) + "..."
	}
	return "\"" + s + "\""
}
