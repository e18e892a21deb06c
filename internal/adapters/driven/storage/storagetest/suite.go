// Package storagetest holds a behavioural suite shared by every
// driven.VectorStore implementation.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) driven.VectorStore

// Entries returns a small fixed corpus: a summary at position 0, two
// records and a page chunk. Embeddings are axis-aligned so similarity is
// easy to reason about.
func Entries(t *testing.T) []domain.VectorEntry {
	t.Helper()
	summary, err := domain.NewSummaryDoc("RESUMEN DETALLADO DEL CSV\n- Total de filas: 2", &domain.TableStats{
		General: domain.GeneralInfo{Rows: 2, UniqueCustomers: 2},
	})
	require.NoError(t, err)

	return []domain.VectorEntry{
		{Position: 0, Embedding: []float32{1, 0, 0}, Document: summary},
		{Position: 1, Embedding: []float32{0, 1, 0}, Document: domain.NewRecordDoc("customer_id: 1", 1)},
		{Position: 2, Embedding: []float32{0, 1, 0}, Document: domain.NewRecordDoc("customer_id: 2", 2)},
		{Position: 3, Embedding: []float32{0, 0, 1}, Document: domain.NewPageDoc("Art. 1", "ley.pdf", 1).WithChunk("Art. 1", 0)},
	}
}

// Run exercises the full VectorStore contract.
func Run(t *testing.T, factory Factory) {
	t.Run("active before activation", func(t *testing.T) {
		s := open(t, factory)
		_, err := s.Active(context.Background(), "bank")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("insert into unknown collection", func(t *testing.T) {
		s := open(t, factory)
		err := s.Insert(context.Background(), "missing", Entries(t))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("count and search", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, factory)
		require.NoError(t, s.CreateCollection(ctx, "c1"))
		require.NoError(t, s.Insert(ctx, "c1", Entries(t)))

		n, err := s.Count(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		hits, err := s.Search(ctx, "c1", []float32{0, 1, 0}, 2, nil)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, 1, hits[0].Position, "ties break by insertion order")
		assert.Equal(t, 2, hits[1].Position)
		assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)

		rec, ok := hits[0].Document.(domain.RecordDoc)
		require.True(t, ok, "expected RecordDoc, got %T", hits[0].Document)
		assert.Equal(t, int64(1), rec.CustomerID())
	})

	t.Run("filter restricts candidates", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, factory)
		require.NoError(t, s.CreateCollection(ctx, "c1"))
		require.NoError(t, s.Insert(ctx, "c1", Entries(t)))

		hits, err := s.Search(ctx, "c1", []float32{0, 0, 1}, 1, domain.SummaryFilter())
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, domain.KindSummary, hits[0].Document.Kind())
		assert.Equal(t, domain.SourceSummary, hits[0].Document.Source())

		sd, ok := hits[0].Document.(domain.SummaryDoc)
		require.True(t, ok)
		assert.Contains(t, sd.FullSummary(), "total_rows")

		hits, err = s.Search(ctx, "c1", []float32{0, 1, 0}, 4, domain.Filter{domain.MetaCustomerID: 2})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, 2, hits[0].Position)
	})

	t.Run("fewer than k is not an error", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, factory)
		require.NoError(t, s.CreateCollection(ctx, "c1"))
		require.NoError(t, s.Insert(ctx, "c1", Entries(t)))

		hits, err := s.Search(ctx, "c1", []float32{1, 1, 1}, 10, nil)
		require.NoError(t, err)
		assert.Len(t, hits, 4)

		hits, err = s.Search(ctx, "c1", []float32{1, 1, 1}, 10, domain.Filter{domain.MetaSource: "other.pdf"})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("page metadata survives", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, factory)
		require.NoError(t, s.CreateCollection(ctx, "c1"))
		require.NoError(t, s.Insert(ctx, "c1", Entries(t)))

		hits, err := s.Search(ctx, "c1", []float32{0, 0, 1}, 1, nil)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		page, ok := hits[0].Document.(domain.PageDoc)
		require.True(t, ok)
		assert.Equal(t, "ley.pdf", page.File())
		assert.Equal(t, 1, page.Page())
		assert.Equal(t, 0, page.Chunk())
		assert.Equal(t, Entries(t)[3].Document.ID(), page.ID())
	})

	t.Run("activate swaps and reports previous", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, factory)
		require.NoError(t, s.CreateCollection(ctx, "c1"))
		require.NoError(t, s.CreateCollection(ctx, "c2"))

		prev, err := s.Activate(ctx, "bank", "c1")
		require.NoError(t, err)
		assert.Empty(t, prev)

		prev, err = s.Activate(ctx, "bank", "c2")
		require.NoError(t, err)
		assert.Equal(t, "c1", prev)

		active, err := s.Active(ctx, "bank")
		require.NoError(t, err)
		assert.Equal(t, "c2", active)

		_, err = s.Activate(ctx, "bank", "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		active, err = s.Active(ctx, "bank")
		require.NoError(t, err)
		assert.Equal(t, "c2", active, "failed activation must not move the alias")
	})

	t.Run("aliases are independent", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, factory)
		require.NoError(t, s.CreateCollection(ctx, "c1"))
		require.NoError(t, s.CreateCollection(ctx, "c2"))

		_, err := s.Activate(ctx, "bank", "c2")
		require.NoError(t, err)
		prev, err := s.Activate(ctx, "bank@retired", "c1")
		require.NoError(t, err)
		assert.Empty(t, prev)

		active, err := s.Active(ctx, "bank")
		require.NoError(t, err)
		assert.Equal(t, "c2", active)
		retired, err := s.Active(ctx, "bank@retired")
		require.NoError(t, err)
		assert.Equal(t, "c1", retired)
	})

	t.Run("drop collection", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, factory)
		require.NoError(t, s.CreateCollection(ctx, "c1"))
		require.NoError(t, s.Insert(ctx, "c1", Entries(t)))

		require.NoError(t, s.DropCollection(ctx, "c1"))
		_, err := s.Count(ctx, "c1")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		assert.NoError(t, s.DropCollection(ctx, "never-existed"))
	})
}

func open(t *testing.T, factory Factory) driven.VectorStore {
	t.Helper()
	s := factory(t)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}
