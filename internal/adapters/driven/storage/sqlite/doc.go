// Package sqlite provides an embedded SQLite implementation of the vector
// store port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Collections hold entries keyed by (collection, position); the aliases table
// maps each logical name to the collection currently served.
//
// # Search
//
// Embeddings are stored as little-endian float32 BLOBs. Search is a brute-force
// cosine scan in Go over the entries of one collection, which is adequate for
// the few thousand documents a build produces.
//
// # Data Location
//
// By default, the database is stored at ~/.ragbank/data/vectors.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
