package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driving"
	"github.com/newsquill-labs/newsquill-cli/internal/logger"
)

// Ensure IndexService implements the driving port.
var _ driving.IndexService = (*IndexService)(nil)

const (
	// defaultChunkChars is the target chunk size in characters.
	defaultChunkChars = 1500

	// chunkBoundaryWindow is how far back from the cut point a paragraph
	// break may be and still be preferred over a mid-paragraph cut.
	chunkBoundaryWindow = 400

	// defaultBackfillBatch caps texts per embedding request.
	defaultBackfillBatch = 64
)

// IndexConfig tunes the index service.
type IndexConfig struct {
	// ChunkChars is the target chunk size. Zero means the default (1500).
	ChunkChars int

	// BatchSize caps texts per embedding request. Zero means 64.
	BatchSize int

	// EmbedRatePerSec throttles embedding requests. Zero or negative
	// disables throttling (local and hash embedders need none).
	EmbedRatePerSec float64
}

// IndexService maintains the chunk store: splitting article bodies into
// chunks and backfilling embedding vectors.
type IndexService struct {
	articleStore driven.ArticleStore
	chunkStore   driven.ChunkStore
	embedder     driven.EmbeddingService
	config       IndexConfig
	limiter      *rate.Limiter
}

// NewIndexService creates a new index service. embedder may be nil, which
// disables vector backfill but not chunking.
func NewIndexService(
	articleStore driven.ArticleStore,
	chunkStore driven.ChunkStore,
	embedder driven.EmbeddingService,
	config IndexConfig,
) *IndexService {
	if config.ChunkChars <= 0 {
		config.ChunkChars = defaultChunkChars
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBackfillBatch
	}
	var limiter *rate.Limiter
	if config.EmbedRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.EmbedRatePerSec), 1)
	}
	return &IndexService{
		articleStore: articleStore,
		chunkStore:   chunkStore,
		embedder:     embedder,
		config:       config,
		limiter:      limiter,
	}
}

// ChunkArticle splits an article's cleaned body into chunks and rewrites
// the stored set. Articles with an empty body get zero chunks.
func (s *IndexService) ChunkArticle(ctx context.Context, articleID int64) (int, error) {
	article, err := s.articleStore.GetArticle(ctx, articleID)
	if err != nil {
		return 0, fmt.Errorf("loading article %d: %w", articleID, err)
	}

	body := article.BodyClean
	if strings.TrimSpace(body) == "" {
		body = article.Body
	}
	texts := splitChunks(body, s.config.ChunkChars)
	if err := s.chunkStore.ReplaceChunks(ctx, articleID, texts); err != nil {
		return 0, fmt.Errorf("replacing chunks for article %d: %w", articleID, err)
	}
	return len(texts), nil
}

// ChunkAll chunks every stored article. Returns total chunks written.
func (s *IndexService) ChunkAll(ctx context.Context) (int, error) {
	ids, err := s.articleStore.ListArticleIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing articles: %w", err)
	}

	total := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.ChunkArticle(ctx, id)
		if err != nil {
			return total, err
		}
		total += n
	}
	logger.Info("Chunked %d articles into %d chunks", len(ids), total)
	return total, nil
}

// BackfillVectors embeds chunks that lack a vector under the configured
// model. With RecomputeAll, existing vectors for the filtered set are
// deleted first and rebuilt. Cancellation stops between batches; stats
// reflect work completed so far.
func (s *IndexService) BackfillVectors(
	ctx context.Context, opts driving.BackfillOptions,
) (domain.BackfillStats, error) {
	var stats domain.BackfillStats
	if s.embedder == nil {
		return stats, domain.ErrEmbeddingUnavailable
	}
	model := s.embedder.ModelName()

	if opts.RecomputeAll {
		replaced, err := s.deleteFilteredVectors(ctx, model, opts.Filter)
		if err != nil {
			return stats, err
		}
		stats.Replaced = replaced
	}

	keys, err := s.chunkStore.ListMissingVectors(ctx, model, opts.Filter)
	if err != nil {
		return stats, fmt.Errorf("listing missing vectors: %w", err)
	}
	stats.Considered = len(keys)
	if len(keys) == 0 {
		return stats, nil
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = s.config.BatchSize
	}

	logger.Section("Vector Backfill")
	logger.Info("Embedding %d chunks under model %s (batch %d)", len(keys), model, batchSize)

	articles := make(map[int64]*domain.Article)
	for start := 0; start < len(keys); start += batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.embedBatch(ctx, model, keys[start:end], articles, &stats); err != nil {
			return stats, err
		}
	}

	logger.Info("Backfill complete: %d embedded, %d skipped, %d replaced",
		stats.Embedded, stats.Skipped, stats.Replaced)
	return stats, nil
}

// embedBatch hydrates one batch of chunk texts, embeds them, and stores
// the vectors with denormalised article metadata.
func (s *IndexService) embedBatch(
	ctx context.Context,
	model string,
	keys []domain.ChunkKey,
	articles map[int64]*domain.Article,
	stats *domain.BackfillStats,
) error {
	chunks, err := s.chunkStore.ListChunksByKeys(ctx, keys)
	if err != nil {
		return fmt.Errorf("loading chunk texts: %w", err)
	}
	// Chunks rewritten since listing simply vanish from the batch.
	stats.Skipped += len(keys) - len(chunks)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d texts",
			domain.ErrParseFailed, len(embeddings), len(chunks))
	}

	vectors := make([]domain.ChunkVector, 0, len(chunks))
	for i, c := range chunks {
		article, err := s.lookupArticle(ctx, c.ArticleID, articles)
		if err != nil {
			return err
		}
		vectors = append(vectors, domain.ChunkVector{
			ArticleID:    c.ArticleID,
			Seq:          c.Seq,
			Model:        model,
			Embedding:    embeddings[i],
			TextHash:     c.TextHash,
			PublishedAt:  article.PublishedAt,
			Topics:       article.Topics,
			SourceType:   article.SourceType,
			SourceDomain: article.SourceDomain,
		})
	}
	if err := s.chunkStore.SaveVectors(ctx, vectors); err != nil {
		return fmt.Errorf("saving vectors: %w", err)
	}
	stats.Embedded += len(vectors)
	return nil
}

// lookupArticle caches article metadata across batches.
func (s *IndexService) lookupArticle(
	ctx context.Context, id int64, cache map[int64]*domain.Article,
) (*domain.Article, error) {
	if a, ok := cache[id]; ok {
		return a, nil
	}
	a, err := s.articleStore.GetArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading article %d metadata: %w", id, err)
	}
	cache[id] = a
	return a, nil
}

// deleteFilteredVectors removes stored vectors for every chunk of every
// article matching the filter, so a recompute pass sees them as missing.
func (s *IndexService) deleteFilteredVectors(
	ctx context.Context, model string, filter domain.VectorFilter,
) (int, error) {
	ids, err := s.articleStore.ListArticleIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing articles: %w", err)
	}

	var keys []domain.ChunkKey
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		article, err := s.articleStore.GetArticle(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("loading article %d: %w", id, err)
		}
		if !matchesVectorFilter(article, filter) {
			continue
		}
		chunks, err := s.chunkStore.GetChunks(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("loading chunks for article %d: %w", id, err)
		}
		for _, c := range chunks {
			keys = append(keys, domain.ChunkKey{ArticleID: c.ArticleID, Seq: c.Seq})
		}
		if filter.Limit > 0 && len(keys) >= filter.Limit {
			keys = keys[:filter.Limit]
			break
		}
	}

	deleted, err := s.chunkStore.DeleteVectors(ctx, model, keys)
	if err != nil {
		return 0, fmt.Errorf("deleting vectors: %w", err)
	}
	return deleted, nil
}

// matchesVectorFilter applies date and topic bounds to an article.
// Undated articles are excluded only when a date bound is set.
func matchesVectorFilter(article *domain.Article, filter domain.VectorFilter) bool {
	if filter.DateFrom != nil || filter.DateTo != nil {
		if article.PublishedAt == nil {
			return false
		}
		if filter.DateFrom != nil && article.PublishedAt.Before(*filter.DateFrom) {
			return false
		}
		if filter.DateTo != nil && article.PublishedAt.After(*filter.DateTo) {
			return false
		}
	}
	if len(filter.Topics) > 0 {
		want := make(map[string]bool, len(filter.Topics))
		for _, t := range filter.Topics {
			want[strings.ToLower(t)] = true
		}
		found := false
		for _, t := range article.Topics {
			if want[strings.ToLower(t)] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RebuildLexicalIndex rebuilds the full-text index from stored chunks.
func (s *IndexService) RebuildLexicalIndex(ctx context.Context) error {
	return s.chunkStore.RebuildLexicalIndex(ctx)
}

// splitChunks cuts text into pieces of roughly size characters, preferring
// a paragraph break when one falls near the cut point.
func splitChunks(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	for i := 0; i < len(text); {
		j := i + size
		if j >= len(text) {
			j = len(text)
		} else {
			if back := strings.LastIndex(text[i:j], "\n\n"); back >= 0 {
				cut := i + back
				if j-cut < chunkBoundaryWindow && cut > i {
					j = cut
				}
			}
			// A hard cut must not land inside a multi-byte rune. If the
			// size is smaller than the rune itself, take the whole rune
			// rather than stalling.
			for j > i && !utf8.RuneStart(text[j]) {
				j--
			}
			if j == i {
				_, n := utf8.DecodeRuneInString(text[i:])
				j = i + n
			}
		}
		piece := strings.TrimSpace(text[i:j])
		if piece != "" {
			out = append(out, piece)
		}
		i = j
	}
	return out
}
