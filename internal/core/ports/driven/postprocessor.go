package driven

import (
	"context"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// Splitter post-processes the unified document set before indexing.
// Splitters are chained in a pipeline.
type Splitter interface {
	// Name returns the splitter name for logging and configuration.
	Name() string

	// Split returns the documents to index in place of docs.
	// Documents the splitter does not handle pass through unchanged.
	Split(ctx context.Context, docs []domain.Document) ([]domain.Document, error)
}
