// Package postgres provides a pgvector-backed implementation of the vector
// store port. Similarity ranking and metadata filtering run in the database.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Close()
}

// Schema creates the tables the store needs. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS rag_collections (
	name       TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rag_entries (
	collection TEXT    NOT NULL REFERENCES rag_collections(name) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	doc_id     TEXT    NOT NULL,
	text       TEXT    NOT NULL,
	metadata   JSONB   NOT NULL DEFAULT '{}'::jsonb,
	embedding  vector  NOT NULL,
	PRIMARY KEY (collection, position)
);

CREATE INDEX IF NOT EXISTS idx_rag_entries_metadata ON rag_entries USING GIN (metadata);

CREATE TABLE IF NOT EXISTS rag_aliases (
	alias      TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

var entryColumns = []string{"collection", "position", "doc_id", "text", "metadata", "embedding"}

// Store is a Postgres vector store.
type Store struct {
	pool Pool
}

var _ driven.VectorStore = (*Store)(nil)

// New wraps an existing pool. The schema must already exist; see Migrate.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to dsn, installs the vector extension, registers the
// pgvector codecs on every connection and applies Schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return eris.Wrap(err, "postgres: create extension vector")
		}
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return eris.Wrap(err, "postgres: apply schema")
	}
	return nil
}

// CreateCollection creates an empty collection.
func (s *Store) CreateCollection(ctx context.Context, collection string) error {
	if collection == "" {
		return eris.Wrap(domain.ErrInvalidInput, "postgres: empty collection name")
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO rag_collections (name) VALUES ($1)`, collection); err != nil {
		return eris.Wrapf(err, "postgres: create collection %s", collection)
	}
	return nil
}

// Insert bulk-loads entries with COPY.
func (s *Store) Insert(ctx context.Context, collection string, entries []domain.VectorEntry) error {
	if err := s.requireCollection(ctx, collection); err != nil {
		return err
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if e.Document == nil {
			return eris.Wrapf(domain.ErrInvalidInput, "postgres: entry %d has no document", e.Position)
		}
		md, err := json.Marshal(e.Document.Metadata())
		if err != nil {
			return eris.Wrap(err, "postgres: marshal metadata")
		}
		rows = append(rows, []any{
			collection, e.Position, e.Document.ID(), e.Document.Text(),
			string(md), pgvector.NewVector(e.Embedding),
		})
	}

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"rag_entries"}, entryColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return eris.Wrapf(err, "postgres: copy entries into %s", collection)
	}
	if int(n) != len(rows) {
		return eris.Errorf("postgres: copied %d of %d entries into %s", n, len(rows), collection)
	}
	return nil
}

// Activate swaps the alias inside one transaction, locking the alias row.
func (s *Store) Activate(ctx context.Context, alias, collection string) (string, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return "", err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var previous string
	err = tx.QueryRow(ctx,
		`SELECT collection FROM rag_aliases WHERE alias = $1 FOR UPDATE`, alias).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", eris.Wrapf(err, "postgres: read alias %s", alias)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO rag_aliases (alias, collection, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (alias) DO UPDATE SET collection = EXCLUDED.collection, updated_at = EXCLUDED.updated_at`,
		alias, collection); err != nil {
		return "", eris.Wrapf(err, "postgres: activate %s", collection)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", eris.Wrap(err, "postgres: commit alias")
	}
	return previous, nil
}

// Active returns the collection alias points at.
func (s *Store) Active(ctx context.Context, alias string) (string, error) {
	var collection string
	err := s.pool.QueryRow(ctx,
		`SELECT collection FROM rag_aliases WHERE alias = $1`, alias).Scan(&collection)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "postgres: read alias %s", alias)
	}
	return collection, nil
}

const searchSQL = `
SELECT position, text, metadata, 1 - (embedding <=> $2) AS similarity
FROM rag_entries
WHERE collection = $1 AND metadata @> $3::jsonb
ORDER BY embedding <=> $2, position
LIMIT $4`

// Search orders by cosine distance, breaking ties on position, and
// restricts to rows whose metadata contains filter.
func (s *Store) Search(
	ctx context.Context, collection string, query []float32, k int, filter domain.Filter,
) ([]domain.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	containment, err := filterJSON(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, searchSQL, collection, pgvector.NewVector(query), containment, k)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search")
	}
	defer rows.Close()

	var hits []domain.ScoredDocument
	for rows.Next() {
		var (
			position   int
			text       string
			raw        []byte
			similarity float64
		)
		if err := rows.Scan(&position, &text, &raw, &similarity); err != nil {
			return nil, eris.Wrap(err, "postgres: scan entry")
		}
		md, err := decodeMetadata(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: entry %d", position)
		}
		doc, err := domain.DocumentFromMetadata(text, md)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: entry %d", position)
		}
		hits = append(hits, domain.ScoredDocument{Document: doc, Similarity: similarity, Position: position})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate entries")
	}
	return hits, nil
}

// Count returns the number of entries in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return 0, err
	}
	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM rag_entries WHERE collection = $1`, collection).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count entries")
	}
	return n, nil
}

// DropCollection removes a collection; entries cascade.
func (s *Store) DropCollection(ctx context.Context, collection string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM rag_collections WHERE name = $1`, collection); err != nil {
		return eris.Wrapf(err, "postgres: drop collection %s", collection)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) requireCollection(ctx context.Context, collection string) error {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM rag_collections WHERE name = $1`, collection).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrapf(domain.ErrNotFound, "postgres: collection %s", collection)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: check collection %s", collection)
	}
	return nil
}

// filterJSON renders a filter as a JSONB containment document. A nil
// filter becomes {} which every row contains.
func filterJSON(filter domain.Filter) (string, error) {
	if len(filter) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]any(filter))
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal filter")
	}
	return string(raw), nil
}

func decodeMetadata(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var md map[string]any
	if err := dec.Decode(&md); err != nil {
		return nil, eris.Wrap(err, "unmarshal metadata")
	}
	return md, nil
}
