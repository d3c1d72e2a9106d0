package services

import (
	"context"
	"fmt"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockChunkStore implements driven.ChunkStore for testing.
type mockChunkStore struct {
	lexicalHits []domain.LexicalHit
	lexicalErr  error

	// vectors is keyed by "articleID:seq:model".
	vectors   map[string]*domain.ChunkVector
	vectorErr error

	chunks map[int64][]domain.Chunk

	missingKeys []domain.ChunkKey
	missingErr  error

	savedVectors  []domain.ChunkVector
	saveErr       error
	deletedKeys   []domain.ChunkKey
	replaced      map[int64][]string
	replaceErr    error
	rebuildCalled bool

	lexicalQueries []string
}

func vecKey(articleID int64, seq int, model string) string {
	return fmt.Sprintf("%d:%d:%s", articleID, seq, model)
}

func (m *mockChunkStore) ReplaceChunks(_ context.Context, articleID int64, texts []string) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	if m.replaced == nil {
		m.replaced = make(map[int64][]string)
	}
	m.replaced[articleID] = texts
	return nil
}

func (m *mockChunkStore) GetChunks(_ context.Context, articleID int64) ([]domain.Chunk, error) {
	return m.chunks[articleID], nil
}

func (m *mockChunkStore) SearchLexical(_ context.Context, query string, limit int) ([]domain.LexicalHit, error) {
	m.lexicalQueries = append(m.lexicalQueries, query)
	if m.lexicalErr != nil {
		return nil, m.lexicalErr
	}
	if limit < len(m.lexicalHits) {
		return m.lexicalHits[:limit], nil
	}
	return m.lexicalHits, nil
}

func (m *mockChunkStore) GetVector(_ context.Context, articleID int64, seq int, model string) (*domain.ChunkVector, error) {
	if m.vectorErr != nil {
		return nil, m.vectorErr
	}
	cv, ok := m.vectors[vecKey(articleID, seq, model)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cv, nil
}

func (m *mockChunkStore) SaveVectors(_ context.Context, vectors []domain.ChunkVector) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedVectors = append(m.savedVectors, vectors...)
	return nil
}

func (m *mockChunkStore) ListMissingVectors(_ context.Context, _ string, filter domain.VectorFilter) ([]domain.ChunkKey, error) {
	if m.missingErr != nil {
		return nil, m.missingErr
	}
	keys := m.missingKeys
	if filter.Limit > 0 && filter.Limit < len(keys) {
		keys = keys[:filter.Limit]
	}
	return keys, nil
}

func (m *mockChunkStore) ListChunksByKeys(_ context.Context, keys []domain.ChunkKey) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for _, key := range keys {
		for _, c := range m.chunks[key.ArticleID] {
			if c.Seq == key.Seq {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (m *mockChunkStore) DeleteVectors(_ context.Context, _ string, keys []domain.ChunkKey) (int, error) {
	m.deletedKeys = append(m.deletedKeys, keys...)
	return len(keys), nil
}

func (m *mockChunkStore) RebuildLexicalIndex(_ context.Context) error {
	m.rebuildCalled = true
	return nil
}

// mockArticleStore implements driven.ArticleStore for testing.
type mockArticleStore struct {
	articles map[int64]*domain.Article
	ids      []int64
	getErr   error
}

func (m *mockArticleStore) UpsertArticle(_ context.Context, article *domain.Article) (int64, error) {
	if m.articles == nil {
		m.articles = make(map[int64]*domain.Article)
	}
	if article.ID == 0 {
		article.ID = int64(len(m.articles) + 1)
	}
	m.articles[article.ID] = article
	return article.ID, nil
}

func (m *mockArticleStore) GetArticle(_ context.Context, id int64) (*domain.Article, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.articles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (m *mockArticleStore) GetArticleByURL(_ context.Context, url string) (*domain.Article, error) {
	for _, a := range m.articles {
		if a.CanonicalURL == url {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockArticleStore) ListArticleIDs(_ context.Context) ([]int64, error) {
	if m.ids != nil {
		return m.ids, nil
	}
	ids := make([]int64, 0, len(m.articles))
	for id := range m.articles {
		ids = append(ids, id)
	}
	return ids, nil
}

// mockRunLogStore implements driven.RunLogStore for testing.
type mockRunLogStore struct {
	runs      []domain.RunRecord
	appendErr error
}

func (m *mockRunLogStore) AppendRun(_ context.Context, run domain.RunRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.runs = append(m.runs, run)
	return nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	model     string
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(m.embedding)
}

func (m *mockEmbeddingService) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService for testing.
// Chat responses are served from a queue; calls record the messages sent.
type mockLLMService struct {
	responses []string
	chatErr   error
	calls     [][]driven.ChatMessage
	next      int
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []driven.ChatMessage{{Role: "user", Content: prompt}}, driven.ChatOptions{
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.calls = append(m.calls, messages)
	if m.chatErr != nil {
		return "", m.chatErr
	}
	if m.next >= len(m.responses) {
		return "", fmt.Errorf("no scripted response for call %d", m.next+1)
	}
	resp := m.responses[m.next]
	m.next++
	return resp, nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockRetrievalService implements driving.RetrievalService for testing.
// The same hits are returned for every query; queries records the calls.
type mockRetrievalService struct {
	hits    []domain.RetrievalHit
	err     error
	queries []string
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context, query string, _ domain.RetrievalOptions,
) ([]domain.RetrievalHit, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	loadErr error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("prompt %q not found", name)
}

func (m *mockPromptStore) Reload() {}
