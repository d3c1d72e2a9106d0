package cli

import (
	"context"
	"time"

	"github.com/newsquill-labs/newsquill-cli/internal/adapters/driven/storage/memory"
	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driving"
	"github.com/newsquill-labs/newsquill-cli/internal/core/services"
)

// setupTestServices swaps the package-level services for in-memory stubs
// and marks the pipeline wired so commands skip initPipeline. The returned
// cleanup restores the previous state.
func setupTestServices() func() {
	oldSettings := settingsService
	oldGeneration := generationService
	oldRetrieval := retrievalService
	oldIndex := indexService
	oldArticles := articleStore
	oldWired := pipelineWired

	settingsService = services.NewSettingsService(memory.NewConfigStore(), nil)
	retrievalService = &stubRetrievalService{hits: testHits()}
	generationService = &stubGenerationService{result: testBlogResult()}
	indexService = &stubIndexService{chunks: 3}
	articleStore = &stubArticleStore{}
	pipelineWired = true

	return func() {
		settingsService = oldSettings
		generationService = oldGeneration
		retrievalService = oldRetrieval
		indexService = oldIndex
		articleStore = oldArticles
		pipelineWired = oldWired
	}
}

func testHits() []domain.RetrievalHit {
	published := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	return []domain.RetrievalHit{
		{
			Text:        "Verification teams flagged the shipment within hours.",
			Title:       "Deal under strain",
			URL:         "https://example.org/strain",
			PublishedAt: &published,
			Score:       0.91,
		},
		{
			Text:  "Officials declined to comment on the timeline.",
			URL:   "https://example.org/timeline",
			Score: 0.62,
		},
	}
}

func testBlogResult() *domain.BlogResult {
	return &domain.BlogResult{
		Markdown: "---\ntitle: \"Test Post\"\n---\n\n# Test Post\n\nBody.\n",
		Subtasks: []domain.Subtask{{ID: "task_1", Draft: "Body."}},
	}
}

type stubRetrievalService struct {
	hits    []domain.RetrievalHit
	err     error
	queries []string
	opts    []domain.RetrievalOptions
}

func (s *stubRetrievalService) Retrieve(_ context.Context, query string, opts domain.RetrievalOptions) ([]domain.RetrievalHit, error) {
	s.queries = append(s.queries, query)
	s.opts = append(s.opts, opts)
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

type stubGenerationService struct {
	result *domain.BlogResult
	err    error
	tasks  []domain.BlogTask
}

func (s *stubGenerationService) Generate(_ context.Context, task domain.BlogTask) (*domain.BlogResult, error) {
	s.tasks = append(s.tasks, task)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubIndexService struct {
	chunks  int
	stats   domain.BackfillStats
	err     error
	rebuilt bool
	opts    []driving.BackfillOptions
}

func (s *stubIndexService) ChunkArticle(_ context.Context, _ int64) (int, error) {
	return s.chunks, s.err
}

func (s *stubIndexService) ChunkAll(_ context.Context) (int, error) {
	return s.chunks, s.err
}

func (s *stubIndexService) BackfillVectors(_ context.Context, opts driving.BackfillOptions) (domain.BackfillStats, error) {
	s.opts = append(s.opts, opts)
	return s.stats, s.err
}

func (s *stubIndexService) RebuildLexicalIndex(_ context.Context) error {
	s.rebuilt = true
	return s.err
}

type stubArticleStore struct {
	articles []*domain.Article
	err      error
}

func (s *stubArticleStore) UpsertArticle(_ context.Context, article *domain.Article) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.articles = append(s.articles, article)
	return int64(len(s.articles)), nil
}

func (s *stubArticleStore) GetArticle(_ context.Context, id int64) (*domain.Article, error) {
	if id < 1 || int(id) > len(s.articles) {
		return nil, domain.ErrNotFound
	}
	return s.articles[id-1], nil
}

func (s *stubArticleStore) GetArticleByURL(_ context.Context, url string) (*domain.Article, error) {
	for _, a := range s.articles {
		if a.CanonicalURL == url {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubArticleStore) ListArticleIDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, len(s.articles))
	for i := range s.articles {
		ids[i] = int64(i + 1)
	}
	return ids, nil
}
