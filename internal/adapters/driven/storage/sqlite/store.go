package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragbank/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragbank/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// DBFile is the database file name inside the data directory.
const DBFile = "vectors.db"

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.VectorStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.ragbank/data/vectors.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragbank", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)

	// Open database with WAL mode for better concurrency. Foreign keys are
	// a per-connection setting, so they go in the DSN for every pooled conn.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_vector_index.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// CreateCollection creates an empty collection.
func (s *Store) CreateCollection(ctx context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: empty collection name", domain.ErrInvalidInput)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO collections (name) VALUES (?)", collection); err != nil {
		return fmt.Errorf("creating collection %s: %w", collection, err)
	}
	return nil
}

// Insert appends entries to a collection in a single transaction.
func (s *Store) Insert(ctx context.Context, collection string, entries []domain.VectorEntry) error {
	if err := s.requireCollection(ctx, collection); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (collection, position, doc_id, kind, source, text, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.Document == nil {
			return fmt.Errorf("%w: entry %d has no document", domain.ErrInvalidInput, e.Position)
		}
		md, err := json.Marshal(e.Document.Metadata())
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, collection, e.Position, e.Document.ID(),
			string(e.Document.Kind()), e.Document.Source(), e.Document.Text(),
			string(md), float32SliceToBytes(e.Embedding)); err != nil {
			return fmt.Errorf("inserting entry %d: %w", e.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entries: %w", err)
	}
	return nil
}

// Activate points alias at collection and returns the previous target.
// The read and the swap share one transaction.
func (s *Store) Activate(ctx context.Context, alias, collection string) (string, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var previous sql.NullString
	err = tx.QueryRowContext(ctx, "SELECT collection FROM aliases WHERE alias = ?", alias).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("reading alias %s: %w", alias, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO aliases (alias, collection, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(alias) DO UPDATE SET
			collection = excluded.collection,
			updated_at = excluded.updated_at
	`, alias, collection)
	if err != nil {
		return "", fmt.Errorf("activating %s: %w", collection, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing alias: %w", err)
	}
	return previous.String, nil
}

// Active returns the collection alias points at.
func (s *Store) Active(ctx context.Context, alias string) (string, error) {
	var collection string
	err := s.db.QueryRowContext(ctx, "SELECT collection FROM aliases WHERE alias = ?", alias).Scan(&collection)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading alias %s: %w", alias, err)
	}
	return collection, nil
}

// Search scans the collection and returns the k most similar documents.
// A filter on source alone is pushed down into SQL.
func (s *Store) Search(
	ctx context.Context, collection string, query []float32, k int, filter domain.Filter,
) ([]domain.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	q := "SELECT position, text, metadata, embedding FROM entries WHERE collection = ?"
	args := []any{collection}
	if src, ok := filter[domain.MetaSource].(string); ok {
		q += " AND source = ?"
		args = append(args, src)
	}
	q += " ORDER BY position"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var hits []domain.ScoredDocument
	for rows.Next() {
		var (
			position int
			text     string
			mdJSON   string
			blob     []byte
		)
		if err := rows.Scan(&position, &text, &mdJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		md, err := decodeMetadata(mdJSON)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", position, err)
		}
		if !filter.Matches(md) {
			continue
		}
		doc, err := domain.DocumentFromMetadata(text, md)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", position, err)
		}
		hits = append(hits, domain.ScoredDocument{
			Document:   doc,
			Similarity: rank.Cosine(query, bytesToFloat32Slice(blob)),
			Position:   position,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return rank.TopK(hits, k), nil
}

// Count returns the number of entries in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE collection = ?", collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// DropCollection removes a collection; entries cascade.
func (s *Store) DropCollection(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", collection); err != nil {
		return fmt.Errorf("dropping collection %s: %w", collection, err)
	}
	return nil
}

// Collections lists every stored collection, sorted by name.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var names []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) requireCollection(ctx context.Context, collection string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM collections WHERE name = ?", collection).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", collection, err)
	}
	return nil
}

func decodeMetadata(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var md map[string]any
	if err := dec.Decode(&md); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return md, nil
}

// float32SliceToBytes encodes a vector as little-endian float32 values.
func float32SliceToBytes(floats []float32) []byte {
	if floats == nil {
		return []byte{}
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice decodes a vector written by float32SliceToBytes.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
