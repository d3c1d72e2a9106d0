package driven

import (
	"context"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
)

// ArticleStore persists fetched articles.
type ArticleStore interface {
	// UpsertArticle inserts or updates an article keyed by canonical URL
	// and returns its store ID. Re-ingesting the same URL is idempotent.
	UpsertArticle(ctx context.Context, article *domain.Article) (int64, error)

	// GetArticle retrieves an article by ID.
	// Returns domain.ErrNotFound if absent.
	GetArticle(ctx context.Context, id int64) (*domain.Article, error)

	// GetArticleByURL retrieves an article by canonical URL.
	// Returns domain.ErrNotFound if absent.
	GetArticleByURL(ctx context.Context, url string) (*domain.Article, error)

	// ListArticleIDs returns the IDs of all stored articles.
	ListArticleIDs(ctx context.Context) ([]int64, error)
}

// ChunkStore persists article chunks, their full-text index and their
// embedding vectors.
type ChunkStore interface {
	// ReplaceChunks atomically rewrites all chunks for an article.
	// The full-text index is kept consistent by the store.
	ReplaceChunks(ctx context.Context, articleID int64, texts []string) error

	// GetChunks returns an article's chunks in sequence order.
	GetChunks(ctx context.Context, articleID int64) ([]domain.Chunk, error)

	// SearchLexical runs a full-text query and returns up to limit hits
	// ordered by relevance rank (best first). A syntactically invalid
	// query is retried as a quoted phrase before failing.
	SearchLexical(ctx context.Context, query string, limit int) ([]domain.LexicalHit, error)

	// GetVector retrieves the stored vector for a chunk under a model.
	// Returns domain.ErrNotFound if absent.
	GetVector(ctx context.Context, articleID int64, seq int, model string) (*domain.ChunkVector, error)

	// SaveVectors stores vectors in one transaction, replacing any
	// existing row with the same (article, seq, model) key.
	SaveVectors(ctx context.Context, vectors []domain.ChunkVector) error

	// ListMissingVectors returns chunks that have no vector under the
	// given model, honouring the filter.
	ListMissingVectors(ctx context.Context, model string, filter domain.VectorFilter) ([]domain.ChunkKey, error)

	// ListChunksByKeys hydrates chunk texts for a backfill batch.
	ListChunksByKeys(ctx context.Context, keys []domain.ChunkKey) ([]domain.Chunk, error)

	// DeleteVectors removes stored vectors for the given keys and model.
	DeleteVectors(ctx context.Context, model string, keys []domain.ChunkKey) (int, error)

	// RebuildLexicalIndex rebuilds the full-text index from the chunks
	// table. Recovery path for index/content drift.
	RebuildLexicalIndex(ctx context.Context) error
}

// RunLogStore records generation runs for audit. Write-only.
type RunLogStore interface {
	// AppendRun records one completed (or attempted) generation run.
	AppendRun(ctx context.Context, run domain.RunRecord) error
}
