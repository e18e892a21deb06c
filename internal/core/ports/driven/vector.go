package driven

import (
	"context"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// VectorStore persists embedded documents in named collections and serves
// nearest-neighbour search over them.
//
// Readers never address a collection that is still being written: builders
// fill a fresh collection and then point an alias at it with Activate.
type VectorStore interface {
	// CreateCollection creates an empty collection.
	CreateCollection(ctx context.Context, collection string) error

	// Insert appends entries to a collection. Positions must be unique
	// within the collection and define tie-break order in Search.
	Insert(ctx context.Context, collection string, entries []domain.VectorEntry) error

	// Activate atomically points alias at collection and returns the
	// collection it pointed at before, or "" if none.
	Activate(ctx context.Context, alias, collection string) (string, error)

	// Active returns the collection alias points at.
	// Returns domain.ErrNotFound if the alias was never activated.
	Active(ctx context.Context, alias string) (string, error)

	// Search returns up to k entries ordered by descending cosine similarity,
	// ties broken by ascending position. Only documents whose metadata
	// matches filter are considered. A nil filter matches everything.
	Search(ctx context.Context, collection string, query []float32, k int, filter domain.Filter) ([]domain.ScoredDocument, error)

	// Count returns the number of entries in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// DropCollection removes a collection and its entries. Dropping an
	// unknown collection is not an error.
	DropCollection(ctx context.Context, collection string) error

	// Close releases resources.
	Close() error
}
