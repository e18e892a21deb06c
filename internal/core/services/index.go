package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// EmbedBatchSize is the number of documents sent per EmbedBatch call.
const EmbedBatchSize = 32

// IndexService builds versioned collections and serves search over the
// active one. A build fills a fresh collection and swaps it in, so readers
// only ever see complete indexes.
//
// The collection replaced by a build is retired rather than dropped, and is
// dropped by the following build. Readers in other processes sharing the
// store therefore keep a valid collection for a whole build cycle. In this
// process a retired collection is also kept while a snapshot pins it.
type IndexService struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	name     string
	now      func() time.Time
	newID    func() string

	mu      sync.Mutex
	pins    map[string]int
	pending map[string]bool
}

// NewIndexService creates an index service serving the logical collection name.
func NewIndexService(store driven.VectorStore, embedder driven.EmbeddingService, name string) *IndexService {
	return &IndexService{
		store:    store,
		embedder: embedder,
		name:     name,
		now:      time.Now,
		newID:    uuid.NewString,
		pins:     make(map[string]int),
		pending:  make(map[string]bool),
	}
}

// Build embeds docs and atomically replaces the active collection.
// On failure the new collection is removed and the previous one stays active.
func (s *IndexService) Build(ctx context.Context, docs []domain.Document) (domain.IndexStatus, error) {
	if len(docs) == 0 {
		return domain.IndexStatus{}, eris.Wrap(domain.ErrInvalidInput, "build index: no documents")
	}
	if s.embedder == nil {
		return domain.IndexStatus{}, eris.Wrap(domain.ErrEmbeddingUnavailable, "build index")
	}

	log := zap.L().With(zap.String("collection", s.name), zap.Int("documents", len(docs)))

	entries, err := s.embed(ctx, docs)
	if err != nil {
		return domain.IndexStatus{}, err
	}

	collection := s.name + "_" + s.newID()
	if err := s.store.CreateCollection(ctx, collection); err != nil {
		return domain.IndexStatus{}, eris.Wrapf(err, "create collection %s", collection)
	}

	previous, err := s.fill(ctx, collection, entries)
	if err != nil {
		// The build context may already be done; cleanup must still run.
		if dropErr := s.store.DropCollection(context.WithoutCancel(ctx), collection); dropErr != nil {
			log.Warn("drop failed collection", zap.String("version", collection), zap.Error(dropErr))
		}
		return domain.IndexStatus{}, err
	}

	if previous != "" && previous != collection {
		s.retire(ctx, previous, collection)
	}
	log.Info("index built", zap.String("version", collection))

	return domain.IndexStatus{
		Name:       s.name,
		Collection: collection,
		Documents:  len(entries),
		BuiltAt:    s.now(),
	}, nil
}

// embed vectorises docs in batches of EmbedBatchSize, preserving order.
func (s *IndexService) embed(ctx context.Context, docs []domain.Document) ([]domain.VectorEntry, error) {
	entries := make([]domain.VectorEntry, 0, len(docs))
	for start := 0; start < len(docs); start += EmbedBatchSize {
		end := min(start+EmbedBatchSize, len(docs))
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text())
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, eris.Wrapf(err, "embed documents %d-%d", start, end-1)
		}
		if len(vectors) != len(texts) {
			return nil, eris.Errorf("embed documents %d-%d: got %d vectors for %d texts",
				start, end-1, len(vectors), len(texts))
		}
		for i, v := range vectors {
			entries = append(entries, domain.VectorEntry{
				Position:  start + i,
				Embedding: v,
				Document:  docs[start+i],
			})
		}
	}
	return entries, nil
}

// fill inserts entries and activates collection, returning the collection
// that was active before.
func (s *IndexService) fill(ctx context.Context, collection string, entries []domain.VectorEntry) (string, error) {
	for start := 0; start < len(entries); start += EmbedBatchSize {
		end := min(start+EmbedBatchSize, len(entries))
		if err := s.store.Insert(ctx, collection, entries[start:end]); err != nil {
			return "", eris.Wrapf(err, "insert into %s", collection)
		}
	}
	previous, err := s.store.Activate(ctx, s.name, collection)
	if err != nil {
		return "", eris.Wrapf(err, "activate %s", collection)
	}
	return previous, nil
}

// Search returns up to k documents nearest to query that match filter.
func (s *IndexService) Search(ctx context.Context, query string, k int, filter domain.Filter) ([]domain.Document, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer snap.Release()
	return snap.Search(ctx, query, k, filter)
}

// Snapshot resolves the active collection once and pins it.
func (s *IndexService) Snapshot(ctx context.Context) (driving.IndexSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	s.pins[collection]++
	return &indexSnapshot{svc: s, collection: collection}, nil
}

// retire parks previous under the retired alias and drops the collection
// it displaces there, unless a snapshot still pins it.
func (s *IndexService) retire(ctx context.Context, previous, current string) {
	log := zap.L().With(zap.String("collection", s.name))

	stale, err := s.store.Activate(ctx, s.retiredAlias(), previous)
	if err != nil {
		log.Warn("retire previous collection", zap.String("version", previous), zap.Error(err))
		return
	}
	if stale == "" || stale == previous || stale == current {
		return
	}

	s.mu.Lock()
	if s.pins[stale] > 0 {
		s.pending[stale] = true
		s.mu.Unlock()
		log.Debug("drop deferred, collection in use", zap.String("version", stale))
		return
	}
	s.mu.Unlock()

	if err := s.store.DropCollection(ctx, stale); err != nil {
		log.Warn("drop retired collection", zap.String("version", stale), zap.Error(err))
	}
}

// unpin releases one snapshot of collection and performs a deferred drop
// once the last snapshot is gone.
func (s *IndexService) unpin(collection string) {
	s.mu.Lock()
	s.pins[collection]--
	drop := s.pins[collection] <= 0 && s.pending[collection]
	if s.pins[collection] <= 0 {
		delete(s.pins, collection)
		delete(s.pending, collection)
	}
	s.mu.Unlock()

	if drop {
		if err := s.store.DropCollection(context.Background(), collection); err != nil {
			zap.L().Warn("drop retired collection", zap.String("version", collection), zap.Error(err))
		}
	}
}

func (s *IndexService) retiredAlias() string {
	return s.name + "@retired"
}

// indexSnapshot searches one pinned collection. The query embedding is
// reused across searches for the same query.
type indexSnapshot struct {
	svc        *IndexService
	collection string
	release    sync.Once

	mu    sync.Mutex
	query string
	vec   []float32
}

func (p *indexSnapshot) Collection() string { return p.collection }

func (p *indexSnapshot) Release() {
	p.release.Do(func() { p.svc.unpin(p.collection) })
}

func (p *indexSnapshot) Search(ctx context.Context, query string, k int, filter domain.Filter) ([]domain.Document, error) {
	if k <= 0 {
		return nil, nil
	}
	vec, err := p.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := p.svc.store.Search(ctx, p.collection, vec, k, filter)
	if err != nil {
		return nil, eris.Wrapf(err, "search %s", p.collection)
	}

	docs := make([]domain.Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.Document)
	}
	return docs, nil
}

func (p *indexSnapshot) embed(ctx context.Context, query string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vec != nil && p.query == query {
		return slices.Clone(p.vec), nil
	}
	if p.svc.embedder == nil {
		return nil, eris.Wrap(domain.ErrEmbeddingUnavailable, "search")
	}
	vec, err := p.svc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "embed query")
	}
	p.query, p.vec = query, vec
	return slices.Clone(vec), nil
}

// Status describes the active collection. Before the first build it
// returns a status with an empty Collection and no error.
func (s *IndexService) Status(ctx context.Context) (domain.IndexStatus, error) {
	status := domain.IndexStatus{Name: s.name}
	collection, err := s.active(ctx)
	if errors.Is(err, domain.ErrIndexUnavailable) {
		return status, nil
	}
	if err != nil {
		return status, err
	}

	count, err := s.store.Count(ctx, collection)
	if err != nil {
		return status, eris.Wrapf(err, "count %s", collection)
	}
	status.Collection = collection
	status.Documents = count
	return status, nil
}

func (s *IndexService) active(ctx context.Context) (string, error) {
	collection, err := s.store.Active(ctx, s.name)
	if errors.Is(err, domain.ErrNotFound) {
		return "", eris.Wrapf(domain.ErrIndexUnavailable, "collection %s has never been built", s.name)
	}
	if err != nil {
		return "", eris.Wrapf(err, "resolve active collection for %s", s.name)
	}
	return collection, nil
}
