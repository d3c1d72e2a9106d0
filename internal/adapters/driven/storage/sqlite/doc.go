// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - ArticleStore: fetched article persistence
//   - ChunkStore: chunk, FTS5 full-text index, and embedding vector persistence
//   - RunLogStore: generation run audit log
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. The chunks_fts virtual table is an external-content
// FTS5 index kept consistent with chunks via triggers.
//
// # Data Location
//
// By default, the database is stored at ~/.newsquill/data/news.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
