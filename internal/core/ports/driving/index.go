package driving

import (
	"context"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
)

// IndexService maintains the chunk store: splitting article bodies into
// chunks and backfilling embedding vectors.
type IndexService interface {
	// ChunkArticle splits an article's cleaned body into chunks and
	// rewrites the stored set. Returns the number of chunks written.
	ChunkArticle(ctx context.Context, articleID int64) (int, error)

	// ChunkAll chunks every stored article. Returns total chunks written.
	ChunkAll(ctx context.Context) (int, error)

	// BackfillVectors embeds chunks that lack a vector under the
	// configured model (or recomputes all when requested).
	BackfillVectors(ctx context.Context, opts BackfillOptions) (domain.BackfillStats, error)

	// RebuildLexicalIndex rebuilds the full-text index from stored chunks.
	RebuildLexicalIndex(ctx context.Context) error
}

// BackfillOptions tunes one vector backfill pass.
type BackfillOptions struct {
	// BatchSize caps texts per embedding request. Zero means the
	// configured default.
	BatchSize int

	// RecomputeAll replaces existing vectors for the filtered set
	// instead of embedding only missing ones.
	RecomputeAll bool

	// Filter restricts the candidate chunks.
	Filter domain.VectorFilter
}
