package driving

import (
	"context"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// Asker answers a single question.
type Asker interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

// RAGService is the end-to-end question answering system.
type RAGService interface {
	Asker

	// Retrieve returns the context documents the tiered retriever selects for query.
	Retrieve(ctx context.Context, query string) ([]domain.Document, error)

	// Rebuild re-ingests every source and atomically replaces the index.
	Rebuild(ctx context.Context) (domain.IndexStatus, error)

	// EnsureIndex rebuilds only when no index exists or the settings
	// fingerprint changed since the last build.
	EnsureIndex(ctx context.Context) (domain.IndexStatus, error)

	// Status describes the active index.
	Status(ctx context.Context) (domain.IndexStatus, error)
}

// IndexService builds and queries the vector index.
type IndexService interface {
	// Build embeds docs into a fresh collection and swaps it in.
	Build(ctx context.Context, docs []domain.Document) (domain.IndexStatus, error)

	// Search returns up to k documents nearest to query that match filter.
	// Returns domain.ErrIndexUnavailable before the first successful Build.
	Search(ctx context.Context, query string, k int, filter domain.Filter) ([]domain.Document, error)

	// Snapshot pins the active collection so that several searches read
	// the same index version, even across a concurrent Build.
	// Returns domain.ErrIndexUnavailable before the first successful Build.
	Snapshot(ctx context.Context) (IndexSnapshot, error)

	// Status describes the active collection.
	Status(ctx context.Context) (domain.IndexStatus, error)
}

// IndexSnapshot searches one fixed collection version. The collection is
// not dropped before Release is called.
type IndexSnapshot interface {
	// Collection is the pinned physical collection.
	Collection() string

	// Search returns up to k documents nearest to query that match filter.
	Search(ctx context.Context, query string, k int, filter domain.Filter) ([]domain.Document, error)

	// Release unpins the collection. Calling it more than once is safe.
	Release()
}

// RetrieveResult is delivered by Retriever.RetrieveAsync.
type RetrieveResult struct {
	Documents []domain.Document
	Err       error
}

// Retriever selects the context documents for a query.
type Retriever interface {
	// Retrieve returns the summary hit first, followed by general hits
	// not already present.
	Retrieve(ctx context.Context, query string) ([]domain.Document, error)

	// RetrieveAsync runs Retrieve in the background. The channel receives
	// exactly one result and is then closed.
	RetrieveAsync(ctx context.Context, query string) <-chan RetrieveResult
}

// AnswerService turns retrieved context into an answer.
type AnswerService interface {
	// Answer generates text for question grounded on docs.
	// Failures are returned as *domain.AnswerGenerationError.
	Answer(ctx context.Context, question string, docs []domain.Document) (*domain.Answer, error)
}
