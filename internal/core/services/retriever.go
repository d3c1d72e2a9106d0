package services

import (
	"context"
	"crypto/sha1" //nolint:gosec // content fingerprint, not authentication
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driving"
	"github.com/newsquill-labs/newsquill-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

var (
	fieldPrefixRe = regexp.MustCompile(`\b\w+:`)
	operatorRe    = regexp.MustCompile(`[<>~=*]+`)
)

// RetrievalService runs hybrid lexical+vector retrieval over the chunk store.
type RetrievalService struct {
	chunkStore       driven.ChunkStore
	embeddingService driven.EmbeddingService
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	chunkStore driven.ChunkStore,
	embeddingService driven.EmbeddingService,
) *RetrievalService {
	return &RetrievalService{
		chunkStore:       chunkStore,
		embeddingService: embeddingService,
	}
}

// Retrieve runs one hybrid retrieval: a full-text candidate pool is
// re-scored against the query embedding, fused, decayed, deduplicated
// and truncated. An empty result is a valid outcome.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) ([]domain.RetrievalHit, error) {
	opts = opts.Normalise()

	logger.Section("Hybrid Retrieval")
	logger.Debug("Query: %q", query)
	logger.Debug("Pool: %d, TopK: %d, Alpha: %.2f, DecayDays: %d",
		opts.LexicalPool, opts.TopK, opts.Alpha, opts.TimeDecayDays)

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.RetrievalHit{}, nil
	}

	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	// Lexical candidate pool. The sanitised query protects the FTS
	// parser from search-operator noise in LLM-built queries.
	matchQuery := SanitiseLexicalQuery(query)
	if matchQuery == "" {
		matchQuery = query
	}
	rows, err := s.chunkStore.SearchLexical(ctx, matchQuery, opts.LexicalPool)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	logger.Debug("Lexical pool: %d candidates", len(rows))

	// No lexical candidates means no result; the vector side only
	// re-scores, it never widens the pool.
	if len(rows) == 0 {
		return []domain.RetrievalHit{}, nil
	}

	// Embed the original query once, in the configured model's space.
	queryVec, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	model := s.embeddingService.ModelName()

	candidates := make([]domain.RetrievalHit, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		cv, err := s.chunkStore.GetVector(ctx, row.ArticleID, row.Seq, model)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// No vector under the query model: the candidate
				// cannot be scored in this space, so it is dropped.
				dropped++
				continue
			}
			return nil, fmt.Errorf("get vector (%d,%d): %w", row.ArticleID, row.Seq, err)
		}

		score := opts.Alpha*lexicalRankScore(i, len(rows)) +
			(1.0-opts.Alpha)*cosineSimilarity(queryVec, cv.Embedding)

		if opts.TimeDecayDays > 0 && row.PublishedAt != nil {
			score *= recencyDecay(*row.PublishedAt, opts.TimeDecayDays)
		}

		candidates = append(candidates, domain.RetrievalHit{
			Text:        row.Text,
			Title:       row.Title,
			URL:         row.URL,
			PublishedAt: row.PublishedAt,
			Score:       score,
		})
	}
	if dropped > 0 {
		logger.Debug("Dropped %d candidates without a %q vector", dropped, model)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	// Deduplicate by text fingerprint, keeping the best-scored copy.
	seen := make(map[string]bool, len(candidates))
	hits := make([]domain.RetrievalHit, 0, opts.TopK)
	for _, c := range candidates {
		key := textFingerprint(c.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		hits = append(hits, c)
		if len(hits) >= opts.TopK {
			break
		}
	}

	logger.Info("Retrieval: %d hits (from %d candidates)", len(hits), len(candidates))
	return hits, nil
}

// SanitiseLexicalQuery cleans a free-form query for FTS MATCH so tokens
// like 'site:' or 'metric:' are not interpreted as column filters.
// Keeps quoted phrases; strips quotes entirely when unbalanced.
func SanitiseLexicalQuery(q string) string {
	// Drop field-like prefixes 'foo:' but keep the token that follows.
	// Prefixes at the end of the string (nothing follows) are left alone.
	var b strings.Builder
	last := 0
	for _, loc := range fieldPrefixRe.FindAllStringIndex(q, -1) {
		rest := q[loc[1]:]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			continue
		}
		b.WriteString(q[last:loc[0]])
		last = loc[1]
	}
	b.WriteString(q[last:])
	s := b.String()

	// Collapse operator punctuation that confuses the parser.
	s = operatorRe.ReplaceAllString(s, " ")

	// An odd quote count cannot parse as phrases; drop all quotes.
	if strings.Count(s, `"`)%2 == 1 {
		s = strings.ReplaceAll(s, `"`, "")
	}

	return strings.TrimSpace(s)
}

// lexicalRankScore maps a candidate's FTS rank position to [0,1]:
// the top-ranked candidate scores 1.0, the last 0.0. A single-candidate
// pool scores 1.0.
func lexicalRankScore(index, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(index)/float64(total-1)
}

// cosineSimilarity computes cosine similarity between two vectors.
// Mismatched or empty vectors score zero rather than erroring: a bad
// stored vector should lose, not abort the whole retrieval.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0.0
	}
	return dot / math.Sqrt(na*nb)
}

// recencyDecay returns exp(-ageDays/decayDays) for a publication time.
// Future-dated articles decay as if published now.
func recencyDecay(publishedAt time.Time, decayDays int) float64 {
	ageDays := time.Since(publishedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-ageDays / float64(decayDays))
}

// textFingerprint returns a short stable fingerprint for dedup.
func textFingerprint(text string) string {
	sum := sha1.Sum([]byte(text)) //nolint:gosec // content fingerprint, not authentication
	return hex.EncodeToString(sum[:])[:16]
}
