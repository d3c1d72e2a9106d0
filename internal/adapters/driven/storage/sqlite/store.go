package sqlite

import (
	"context"
	"crypto/sha1" //nolint:gosec // content fingerprint, not authentication
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/newsquill-labs/newsquill-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// article, chunk and run-log store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.newsquill/data/news.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".newsquill", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "news.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
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

// ArticleStore returns an ArticleStore interface backed by this store.
func (s *Store) ArticleStore() driven.ArticleStore {
	return &articleStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// RunLogStore returns a RunLogStore interface backed by this store.
func (s *Store) RunLogStore() driven.RunLogStore {
	return &runLogStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
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
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
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

// ==================== Article Store ====================

// articleStore implements driven.ArticleStore.
type articleStore struct {
	store *Store
}

var _ driven.ArticleStore = (*articleStore)(nil)

// UpsertArticle inserts or updates an article keyed by canonical URL.
func (s *articleStore) UpsertArticle(ctx context.Context, article *domain.Article) (int64, error) {
	if article.CanonicalURL == "" || article.Title == "" {
		return 0, domain.ErrInvalidInput
	}

	if article.FetchedAt.IsZero() {
		article.FetchedAt = time.Now().UTC()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO articles (source_domain, source_type, canonical_url, title, author,
			published_at, fetched_at, lang, summary, body, body_clean, word_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(canonical_url) DO UPDATE SET
			source_domain = excluded.source_domain,
			source_type = excluded.source_type,
			title = excluded.title,
			author = excluded.author,
			published_at = excluded.published_at,
			fetched_at = excluded.fetched_at,
			lang = excluded.lang,
			summary = excluded.summary,
			body = excluded.body,
			body_clean = excluded.body_clean,
			word_count = excluded.word_count
	`, article.SourceDomain, article.SourceType, article.CanonicalURL, article.Title,
		article.Author, nullTime(article.PublishedAt), article.FetchedAt, article.Lang,
		article.Summary, article.Body, article.BodyClean, article.WordCount)
	if err != nil {
		return 0, fmt.Errorf("saving article: %w", err)
	}

	var id int64
	row := tx.QueryRowContext(ctx, "SELECT id FROM articles WHERE canonical_url = ?", article.CanonicalURL)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("resolving article id: %w", err)
	}

	// Topics are rewritten wholesale so removals stick.
	if _, err := tx.ExecContext(ctx, "DELETE FROM article_topics WHERE article_id = ?", id); err != nil {
		return 0, fmt.Errorf("clearing topics: %w", err)
	}
	for _, topic := range article.Topics {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO article_topics (article_id, topic) VALUES (?, ?)", id, topic); err != nil {
			return 0, fmt.Errorf("saving topic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	article.ID = id
	return id, nil
}

// GetArticle retrieves an article by ID.
func (s *articleStore) GetArticle(ctx context.Context, id int64) (*domain.Article, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_domain, source_type, canonical_url, title, author,
			published_at, fetched_at, lang, summary, body, body_clean, word_count
		FROM articles WHERE id = ?
	`, id)

	article, err := scanArticle(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadTopics(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// GetArticleByURL retrieves an article by canonical URL.
func (s *articleStore) GetArticleByURL(ctx context.Context, url string) (*domain.Article, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_domain, source_type, canonical_url, title, author,
			published_at, fetched_at, lang, summary, body, body_clean, word_count
		FROM articles WHERE canonical_url = ?
	`, url)

	article, err := scanArticle(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadTopics(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// ListArticleIDs returns the IDs of all stored articles.
func (s *articleStore) ListArticleIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT id FROM articles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying article ids: %w", err)
	}
	defer rows.Close()

	var ids []int64 //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning article id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating article ids: %w", err)
	}

	return ids, nil
}

// loadTopics fills article.Topics from the article_topics table.
func (s *articleStore) loadTopics(ctx context.Context, article *domain.Article) error {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT topic FROM article_topics WHERE article_id = ? ORDER BY topic", article.ID)
	if err != nil {
		return fmt.Errorf("querying topics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return fmt.Errorf("scanning topic: %w", err)
		}
		article.Topics = append(article.Topics, topic)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating topics: %w", err)
	}
	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// ReplaceChunks atomically rewrites all chunks for an article.
// FTS triggers keep chunks_fts consistent through the delete/insert.
func (s *chunkStore) ReplaceChunks(ctx context.Context, articleID int64, texts []string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE article_id = ?", articleID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (article_id, seq, text, text_hash) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for seq, text := range texts {
		if _, err := stmt.ExecContext(ctx, articleID, seq, text, textHash(text)); err != nil {
			return fmt.Errorf("saving chunk %d: %w", seq, err)
		}
	}

	// Drop vectors whose chunk text changed or disappeared, so backfill
	// sees them as missing. Vectors for unchanged text survive re-chunking.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM chunk_vectors
		WHERE article_id = ?
		AND NOT EXISTS (
			SELECT 1 FROM chunks c
			WHERE c.article_id = chunk_vectors.article_id
				AND c.seq = chunk_vectors.seq
				AND c.text_hash = chunk_vectors.text_hash
		)
	`, articleID); err != nil {
		return fmt.Errorf("clearing stale vectors: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks returns an article's chunks in sequence order.
func (s *chunkStore) GetChunks(ctx context.Context, articleID int64) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT article_id, seq, text, text_hash
		FROM chunks WHERE article_id = ?
		ORDER BY seq
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// SearchLexical runs a full-text query ordered by FTS rank.
// A syntactically invalid query falls back to a quoted-phrase search
// over the literal text before giving up.
func (s *chunkStore) SearchLexical(ctx context.Context, query string, limit int) ([]domain.LexicalHit, error) {
	const q = `
		SELECT c.article_id, c.seq, c.text, a.title, a.canonical_url, a.published_at
		FROM chunks_fts f
		JOIN chunks c ON c.rowid = f.rowid
		JOIN articles a ON a.id = c.article_id
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`

	hits, err := s.queryLexical(ctx, q, query, limit)
	if err == nil {
		return hits, nil
	}

	// FTS5 rejects queries with stray operators; retry the literal text
	// as a phrase with embedded quotes stripped.
	phrase := `"` + strings.ReplaceAll(query, `"`, " ") + `"`
	hits, ferr := s.queryLexical(ctx, q, phrase, limit)
	if ferr != nil {
		return nil, fmt.Errorf("lexical search (phrase fallback after %v): %w", err, ferr)
	}
	return hits, nil
}

func (s *chunkStore) queryLexical(ctx context.Context, q, match string, limit int) ([]domain.LexicalHit, error) {
	rows, err := s.store.db.QueryContext(ctx, q, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying fts: %w", err)
	}
	defer rows.Close()

	var hits []domain.LexicalHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit domain.LexicalHit
		var publishedAt sql.NullTime
		if err := rows.Scan(&hit.ArticleID, &hit.Seq, &hit.Text, &hit.Title, &hit.URL, &publishedAt); err != nil {
			return nil, fmt.Errorf("scanning lexical hit: %w", err)
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			hit.PublishedAt = &t
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lexical hits: %w", err)
	}

	return hits, nil
}

// GetVector retrieves the stored vector for a chunk under a model.
func (s *chunkStore) GetVector(ctx context.Context, articleID int64, seq int, model string) (*domain.ChunkVector, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT article_id, seq, model, text_hash, embedding,
			published_at, topics_json, source_type, source_domain
		FROM chunk_vectors WHERE article_id = ? AND seq = ? AND model = ?
	`, articleID, seq, model)

	var v domain.ChunkVector
	var embeddingBlob []byte
	var publishedAt sql.NullTime
	var topicsJSON, sourceType, sourceDomain sql.NullString
	if err := row.Scan(&v.ArticleID, &v.Seq, &v.Model, &v.TextHash, &embeddingBlob,
		&publishedAt, &topicsJSON, &sourceType, &sourceDomain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning vector: %w", err)
	}

	v.Embedding = bytesToFloat32Slice(embeddingBlob)
	if publishedAt.Valid {
		t := publishedAt.Time
		v.PublishedAt = &t
	}
	if topicsJSON.Valid && topicsJSON.String != "" {
		if err := json.Unmarshal([]byte(topicsJSON.String), &v.Topics); err != nil {
			return nil, fmt.Errorf("unmarshaling topics: %w", err)
		}
	}
	v.SourceType = sourceType.String
	v.SourceDomain = sourceDomain.String

	return &v, nil
}

// SaveVectors stores vectors in one transaction, replacing rows that
// share the (article_id, seq, model) key.
func (s *chunkStore) SaveVectors(ctx context.Context, vectors []domain.ChunkVector) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunk_vectors
			(article_id, seq, model, text_hash, embedding, published_at, topics_json, source_type, source_domain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(article_id, seq, model) DO UPDATE SET
			text_hash = excluded.text_hash,
			embedding = excluded.embedding,
			published_at = excluded.published_at,
			topics_json = excluded.topics_json,
			source_type = excluded.source_type,
			source_domain = excluded.source_domain
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range vectors {
		v := &vectors[i]
		topicsJSON, err := json.Marshal(v.Topics)
		if err != nil {
			return fmt.Errorf("marshalling topics: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, v.ArticleID, v.Seq, v.Model, v.TextHash,
			float32SliceToBytes(v.Embedding), nullTime(v.PublishedAt),
			string(topicsJSON), v.SourceType, v.SourceDomain); err != nil {
			return fmt.Errorf("saving vector: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListMissingVectors returns chunks that have no vector for their current
// text under the model. A vector stored for an older text of the same
// (article, seq) does not count as present.
func (s *chunkStore) ListMissingVectors(
	ctx context.Context,
	model string,
	filter domain.VectorFilter,
) ([]domain.ChunkKey, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT c.article_id, c.seq
		FROM chunks c
		JOIN articles a ON a.id = c.article_id
		WHERE NOT EXISTS (
			SELECT 1 FROM chunk_vectors v
			WHERE v.article_id = c.article_id AND v.seq = c.seq
				AND v.model = ? AND v.text_hash = c.text_hash
		)
	`)
	args := []any{model}

	appendVectorFilter(&sb, &args, filter)
	sb.WriteString(" ORDER BY a.published_at DESC, c.article_id DESC, c.seq ASC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying missing vectors: %w", err)
	}
	defer rows.Close()

	return scanChunkKeys(rows)
}

// ListChunksByKeys hydrates chunk texts for a backfill batch.
func (s *chunkStore) ListChunksByKeys(ctx context.Context, keys []domain.ChunkKey) ([]domain.Chunk, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	stmt, err := s.store.db.PrepareContext(ctx,
		"SELECT article_id, seq, text, text_hash FROM chunks WHERE article_id = ? AND seq = ?")
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	chunks := make([]domain.Chunk, 0, len(keys))
	for _, key := range keys {
		var chunk domain.Chunk
		err := stmt.QueryRowContext(ctx, key.ArticleID, key.Seq).
			Scan(&chunk.ArticleID, &chunk.Seq, &chunk.Text, &chunk.TextHash)
		if errors.Is(err, sql.ErrNoRows) {
			continue // chunk rewritten since the keys were listed
		}
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// DeleteVectors removes stored vectors for the given keys and model.
func (s *chunkStore) DeleteVectors(ctx context.Context, model string, keys []domain.ChunkKey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		"DELETE FROM chunk_vectors WHERE article_id = ? AND seq = ? AND model = ?")
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	deleted := 0
	for _, key := range keys {
		res, err := stmt.ExecContext(ctx, key.ArticleID, key.Seq, model)
		if err != nil {
			return 0, fmt.Errorf("deleting vector: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return deleted, nil
}

// RebuildLexicalIndex rebuilds chunks_fts from the chunks content table.
func (s *chunkStore) RebuildLexicalIndex(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx,
		"INSERT INTO chunks_fts(chunks_fts) VALUES ('rebuild')"); err != nil {
		return fmt.Errorf("rebuilding fts index: %w", err)
	}
	return nil
}

// appendVectorFilter adds date/topic clauses for the articles alias "a".
func appendVectorFilter(sb *strings.Builder, args *[]any, filter domain.VectorFilter) {
	if filter.DateFrom != nil {
		sb.WriteString(" AND a.published_at IS NOT NULL AND a.published_at >= ?")
		*args = append(*args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		sb.WriteString(" AND a.published_at IS NOT NULL AND a.published_at <= ?")
		*args = append(*args, *filter.DateTo)
	}
	if len(filter.Topics) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Topics)), ",")
		sb.WriteString(` AND EXISTS (
			SELECT 1 FROM article_topics t
			WHERE t.article_id = a.id AND t.topic IN (` + placeholders + `)
		)`)
		for _, topic := range filter.Topics {
			*args = append(*args, topic)
		}
	}
}

// ==================== Run Log Store ====================

// runLogStore implements driven.RunLogStore.
type runLogStore struct {
	store *Store
}

var _ driven.RunLogStore = (*runLogStore)(nil)

// AppendRun records one generation run.
func (s *runLogStore) AppendRun(ctx context.Context, run domain.RunRecord) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO content_runs (run_uid, topic, created_at, prompt, outputs)
		VALUES (?, ?, ?, ?, ?)
	`, run.RunUID, run.Topic, run.CreatedAt, run.Prompt, run.Output)
	if err != nil {
		return fmt.Errorf("appending run: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
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

// textHash returns the SHA-1 hex digest of text.
func textHash(text string) string {
	sum := sha1.Sum([]byte(text)) //nolint:gosec // content fingerprint, not authentication
	return hex.EncodeToString(sum[:])
}

// nullTime converts *time.Time to a driver-friendly nullable value.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// scanArticle scans a single article row.
func scanArticle(row *sql.Row) (*domain.Article, error) {
	var article domain.Article
	var author, lang, summary, body, bodyClean sql.NullString
	var publishedAt sql.NullTime

	if err := row.Scan(&article.ID, &article.SourceDomain, &article.SourceType,
		&article.CanonicalURL, &article.Title, &author, &publishedAt, &article.FetchedAt,
		&lang, &summary, &body, &bodyClean, &article.WordCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning article: %w", err)
	}

	article.Author = author.String
	article.Lang = lang.String
	article.Summary = summary.String
	article.Body = body.String
	article.BodyClean = bodyClean.String
	if publishedAt.Valid {
		t := publishedAt.Time
		article.PublishedAt = &t
	}

	return &article, nil
}

// scanChunks scans multiple chunk rows.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		if err := rows.Scan(&chunk.ArticleID, &chunk.Seq, &chunk.Text, &chunk.TextHash); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// scanChunkKeys scans multiple chunk key rows.
func scanChunkKeys(rows *sql.Rows) ([]domain.ChunkKey, error) {
	var keys []domain.ChunkKey //nolint:prealloc // size unknown from query
	for rows.Next() {
		var key domain.ChunkKey
		if err := rows.Scan(&key.ArticleID, &key.Seq); err != nil {
			return nil, fmt.Errorf("scanning chunk key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk keys: %w", err)
	}

	return keys, nil
}
