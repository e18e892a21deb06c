package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragbank/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Nothing survives Close. Used for tests and the "memory" backend.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string][]domain.VectorEntry
	aliases     map[string]string
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string][]domain.VectorEntry),
		aliases:     make(map[string]string),
	}
}

// CreateCollection creates an empty collection.
func (s *VectorStore) CreateCollection(_ context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: empty collection name", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection]; ok {
		return fmt.Errorf("collection %s already exists", collection)
	}
	s.collections[collection] = nil
	return nil
}

// Insert appends entries to a collection. Embeddings are copied.
func (s *VectorStore) Insert(_ context.Context, collection string, entries []domain.VectorEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	for _, e := range entries {
		if e.Document == nil {
			return fmt.Errorf("%w: entry %d has no document", domain.ErrInvalidInput, e.Position)
		}
		e.Embedding = append([]float32(nil), e.Embedding...)
		existing = append(existing, e)
	}
	s.collections[collection] = existing
	return nil
}

// Activate points alias at collection under the store lock.
func (s *VectorStore) Activate(_ context.Context, alias, collection string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection]; !ok {
		return "", fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	previous := s.aliases[alias]
	s.aliases[alias] = collection
	return previous, nil
}

// Active returns the collection alias points at.
func (s *VectorStore) Active(_ context.Context, alias string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	collection, ok := s.aliases[alias]
	if !ok {
		return "", domain.ErrNotFound
	}
	return collection, nil
}

// Search returns up to k entries by cosine similarity.
func (s *VectorStore) Search(
	_ context.Context, collection string, query []float32, k int, filter domain.Filter,
) ([]domain.ScoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	if k <= 0 {
		return nil, nil
	}

	var hits []domain.ScoredDocument
	for _, e := range entries {
		if !filter.Matches(e.Document.Metadata()) {
			continue
		}
		hits = append(hits, domain.ScoredDocument{
			Document:   e.Document,
			Similarity: rank.Cosine(query, e.Embedding),
			Position:   e.Position,
		})
	}
	return rank.TopK(hits, k), nil
}

// Count returns the number of entries in a collection.
func (s *VectorStore) Count(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	return len(entries), nil
}

// DropCollection removes a collection.
func (s *VectorStore) DropCollection(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}

// Collections returns the number of stored collections.
func (s *VectorStore) Collections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections)
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}
