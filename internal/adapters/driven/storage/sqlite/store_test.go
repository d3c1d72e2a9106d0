package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "newsquill-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// saveTestArticle stores an article with a body and returns its ID.
func saveTestArticle(t *testing.T, store *Store, url, title string, published *time.Time, topics ...string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := store.ArticleStore().UpsertArticle(ctx, &domain.Article{
		SourceDomain: "example.com",
		SourceType:   "api",
		CanonicalURL: url,
		Title:        title,
		PublishedAt:  published,
		FetchedAt:    time.Now().UTC(),
		BodyClean:    "Body for " + title,
		Topics:       topics,
	})
	require.NoError(t, err)
	return id
}

// ==================== Store Creation Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "newsquill-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "news.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	assert.NoError(t, store.db.Ping())
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "newsquill-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs migrate again against an up-to-date schema.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

// ==================== Article Store Tests ====================

func TestArticleStore_UpsertIsIdempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	published := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := saveTestArticle(t, store, "https://example.com/a", "First title", &published, "tariffs")
	second := saveTestArticle(t, store, "https://example.com/a", "Updated title", &published, "tariffs", "trade")

	assert.Equal(t, first, second, "same canonical URL must keep the same ID")

	got, err := store.ArticleStore().GetArticle(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Updated title", got.Title)
	assert.Equal(t, []string{"tariffs", "trade"}, got.Topics)
}

func TestArticleStore_UpsertRejectsMissingFields(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.ArticleStore().UpsertArticle(context.Background(), &domain.Article{
		SourceDomain: "example.com",
		SourceType:   "api",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestArticleStore_GetByURL(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := saveTestArticle(t, store, "https://example.com/b", "By URL", nil)

	got, err := store.ArticleStore().GetArticleByURL(ctx, "https://example.com/b")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Nil(t, got.PublishedAt)

	_, err = store.ArticleStore().GetArticleByURL(ctx, "https://example.com/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArticleStore_ListArticleIDs(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	a := saveTestArticle(t, store, "https://example.com/1", "One", nil)
	b := saveTestArticle(t, store, "https://example.com/2", "Two", nil)

	ids, err := store.ArticleStore().ListArticleIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{a, b}, ids)
}

// ==================== Chunk Store Tests ====================

func TestChunkStore_ReplaceAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := saveTestArticle(t, store, "https://example.com/c", "Chunked", nil)
	chunkStore := store.ChunkStore()

	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{"alpha text", "beta text"}))

	chunks, err := chunkStore.GetChunks(ctx, id)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Seq)
	assert.Equal(t, "alpha text", chunks[0].Text)
	assert.NotEmpty(t, chunks[0].TextHash)

	// Rewriting replaces the whole set.
	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{"gamma text"}))
	chunks, err = chunkStore.GetChunks(ctx, id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "gamma text", chunks[0].Text)
}

func TestChunkStore_SearchLexical(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	published := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	id := saveTestArticle(t, store, "https://example.com/d", "Tariff deal", &published)
	chunkStore := store.ChunkStore()

	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{
		"The tariff agreement includes verification milestones.",
		"Unrelated paragraph about sports results.",
	}))

	hits, err := chunkStore.SearchLexical(ctx, "tariff verification", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ArticleID)
	assert.Equal(t, "Tariff deal", hits[0].Title)
	assert.Equal(t, "https://example.com/d", hits[0].URL)
	require.NotNil(t, hits[0].PublishedAt)
	assert.Equal(t, published.Year(), hits[0].PublishedAt.Year())
}

func TestChunkStore_SearchLexicalStaysConsistentAfterReplace(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := saveTestArticle(t, store, "https://example.com/e", "Replace me", nil)
	chunkStore := store.ChunkStore()

	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{"quantum computing breakthrough"}))
	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{"fiscal policy analysis"}))

	hits, err := chunkStore.SearchLexical(ctx, "quantum", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "replaced chunk must leave the FTS index")

	hits, err = chunkStore.SearchLexical(ctx, "fiscal", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestChunkStore_SearchLexicalPhraseFallback(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := saveTestArticle(t, store, "https://example.com/f", "Fallback", nil)
	chunkStore := store.ChunkStore()
	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{"compliance AND verification data"}))

	// Stray operators make FTS5 reject the raw query; the phrase
	// fallback should still answer without an error.
	hits, err := chunkStore.SearchLexical(ctx, `compliance AND AND (`, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(hits), 1)

	// A well-formed query still matches normally.
	hits, err = chunkStore.SearchLexical(ctx, "compliance", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestChunkStore_RebuildLexicalIndex(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := saveTestArticle(t, store, "https://example.com/g", "Rebuild", nil)
	chunkStore := store.ChunkStore()
	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{"renewable energy subsidies"}))

	require.NoError(t, chunkStore.RebuildLexicalIndex(ctx))

	hits, err := chunkStore.SearchLexical(ctx, "renewable", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestChunkStore_VectorsAreKeyedByModel(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	published := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	id := saveTestArticle(t, store, "https://example.com/h", "Vectors", &published, "trade")
	chunkStore := store.ChunkStore()
	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{"vector chunk"}))

	vec := domain.ChunkVector{
		ArticleID:    id,
		Seq:          0,
		Model:        "text-embedding-3-small",
		TextHash:     "abc",
		Embedding:    []float32{0.1, 0.2, 0.3},
		PublishedAt:  &published,
		Topics:       []string{"trade"},
		SourceType:   "api",
		SourceDomain: "example.com",
	}
	require.NoError(t, chunkStore.SaveVectors(ctx, []domain.ChunkVector{vec}))

	got, err := chunkStore.GetVector(ctx, id, 0, "text-embedding-3-small")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3}, got.Embedding, 1e-6)
	assert.Equal(t, []string{"trade"}, got.Topics)
	assert.Equal(t, "example.com", got.SourceDomain)

	// A vector under another model does not exist.
	_, err = chunkStore.GetVector(ctx, id, 0, "nomic-embed-text")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Saving again under the same key replaces the row.
	vec.Embedding = []float32{0.9, 0.8, 0.7}
	require.NoError(t, chunkStore.SaveVectors(ctx, []domain.ChunkVector{vec}))
	got, err = chunkStore.GetVector(ctx, id, 0, "text-embedding-3-small")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.9, 0.8, 0.7}, got.Embedding, 1e-6)
}

func TestChunkStore_ListMissingVectors(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	old := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	oldID := saveTestArticle(t, store, "https://example.com/old", "Old", &old, "economy")
	newID := saveTestArticle(t, store, "https://example.com/new", "New", &recent, "politics")

	chunkStore := store.ChunkStore()
	require.NoError(t, chunkStore.ReplaceChunks(ctx, oldID, []string{"old chunk"}))
	require.NoError(t, chunkStore.ReplaceChunks(ctx, newID, []string{"new chunk one", "new chunk two"}))

	const model = "text-embedding-3-small"

	missing, err := chunkStore.ListMissingVectors(ctx, model, domain.VectorFilter{})
	require.NoError(t, err)
	assert.Len(t, missing, 3)

	// Vector under a different model does not satisfy the check.
	require.NoError(t, chunkStore.SaveVectors(ctx, []domain.ChunkVector{{
		ArticleID: newID, Seq: 0, Model: "other-model", TextHash: textHash("new chunk one"), Embedding: []float32{1},
	}}))
	missing, err = chunkStore.ListMissingVectors(ctx, model, domain.VectorFilter{})
	require.NoError(t, err)
	assert.Len(t, missing, 3)

	// Vector under the right model removes the chunk from the set.
	require.NoError(t, chunkStore.SaveVectors(ctx, []domain.ChunkVector{{
		ArticleID: newID, Seq: 0, Model: model, TextHash: textHash("new chunk one"), Embedding: []float32{1},
	}}))
	missing, err = chunkStore.ListMissingVectors(ctx, model, domain.VectorFilter{})
	require.NoError(t, err)
	assert.Len(t, missing, 2)

	// Date filter excludes the old article.
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	missing, err = chunkStore.ListMissingVectors(ctx, model, domain.VectorFilter{DateFrom: &cutoff})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, newID, missing[0].ArticleID)

	// Topic filter keeps only matching articles.
	missing, err = chunkStore.ListMissingVectors(ctx, model, domain.VectorFilter{Topics: []string{"economy"}})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, oldID, missing[0].ArticleID)

	// Limit caps the result.
	missing, err = chunkStore.ListMissingVectors(ctx, model, domain.VectorFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, missing, 1)
}

func TestChunkStore_ReplaceChunksDropsStaleVectors(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := saveTestArticle(t, store, "https://example.com/rechunk", "Rechunk", nil)
	chunkStore := store.ChunkStore()

	const model = "text-embedding-3-small"
	oldText := "old text about central bank policy"
	keptText := "paragraph that survives re-chunking"
	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{oldText, keptText}))
	require.NoError(t, chunkStore.SaveVectors(ctx, []domain.ChunkVector{
		{ArticleID: id, Seq: 0, Model: model, TextHash: textHash(oldText), Embedding: []float32{1, 2}},
		{ArticleID: id, Seq: 1, Model: model, TextHash: textHash(keptText), Embedding: []float32{3, 4}},
	}))

	missing, err := chunkStore.ListMissingVectors(ctx, model, domain.VectorFilter{})
	require.NoError(t, err)
	require.Empty(t, missing)

	// Re-chunk with new text in seq 0; seq 1 keeps its text.
	newText := "revised text about fiscal stimulus"
	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{newText, keptText}))

	// The rewritten chunk needs a fresh embedding and must not serve
	// the one computed for its old text.
	missing, err = chunkStore.ListMissingVectors(ctx, model, domain.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, domain.ChunkKey{ArticleID: id, Seq: 0}, missing[0])

	_, err = chunkStore.GetVector(ctx, id, 0, model)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The unchanged chunk's vector survives.
	kept, err := chunkStore.GetVector(ctx, id, 1, model)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{3, 4}, kept.Embedding, 1e-6)
}

func TestChunkStore_ListChunksByKeys(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := saveTestArticle(t, store, "https://example.com/i", "Keys", nil)
	chunkStore := store.ChunkStore()
	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{"first", "second"}))

	chunks, err := chunkStore.ListChunksByKeys(ctx, []domain.ChunkKey{
		{ArticleID: id, Seq: 1},
		{ArticleID: 999, Seq: 0}, // gone chunks are skipped, not errors
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "second", chunks[0].Text)
}

func TestChunkStore_DeleteVectors(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := saveTestArticle(t, store, "https://example.com/j", "Delete", nil)
	chunkStore := store.ChunkStore()
	require.NoError(t, chunkStore.ReplaceChunks(ctx, id, []string{"one", "two"}))

	const model = "text-embedding-3-small"
	require.NoError(t, chunkStore.SaveVectors(ctx, []domain.ChunkVector{
		{ArticleID: id, Seq: 0, Model: model, TextHash: "a", Embedding: []float32{1}},
		{ArticleID: id, Seq: 1, Model: model, TextHash: "b", Embedding: []float32{2}},
	}))

	deleted, err := chunkStore.DeleteVectors(ctx, model, []domain.ChunkKey{{ArticleID: id, Seq: 0}})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = chunkStore.GetVector(ctx, id, 0, model)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = chunkStore.GetVector(ctx, id, 1, model)
	assert.NoError(t, err)
}

// ==================== Run Log Tests ====================

func TestRunLogStore_AppendRun(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := store.RunLogStore().AppendRun(ctx, domain.RunRecord{
		RunUID: "0f1e2d3c",
		Topic:  "The Fentanyl Tariff Deal",
		Prompt: "master prompt",
		Output: "post body",
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM content_runs").Scan(&count))
	assert.Equal(t, 1, count)

	var uid string
	require.NoError(t, store.db.QueryRow("SELECT run_uid FROM content_runs").Scan(&uid))
	assert.Equal(t, "0f1e2d3c", uid)
}

// ==================== Helper Tests ====================

func TestFloat32BlobRoundTrip(t *testing.T) {
	in := []float32{0.0, -1.5, 3.25, 1e-8}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.InDeltaSlice(t, in, out, 1e-9)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
