package services

import (
	"context"
	"fmt"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
	"github.com/newsquill-labs/newsquill-cli/internal/logger"
)

// Ensure QueryBuilder implements the optional prompt-store injection.
var _ driven.PromptStoreAware = (*QueryBuilder)(nil)

// defaultQueryBuilderSystem is the fallback system prompt when no
// PromptStore is configured.
const defaultQueryBuilderSystem = "You are a research query designer for investigative blog writing. " +
	"Queries must be concrete, entity-rich, and verification-focused—good for search and vector recall. " +
	"Prefer nouns, entities, metrics, mechanisms, and time windows. Avoid opinion words."

// QueryBuilder generates diversified retrieval queries for one subtask.
// Queries may contain search-operator noise (site:, quotes); the retriever
// sanitises them, so every entry point is covered.
type QueryBuilder struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewQueryBuilder creates a new query builder.
func NewQueryBuilder(llm driven.LLMService) *QueryBuilder {
	return &QueryBuilder{llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (b *QueryBuilder) SetPromptStore(store driven.PromptStore) {
	b.promptStore = store
}

// BuildQueries generates up to m retrieval queries for the subtask.
// Fewer than m is a soft outcome, not an error.
func (b *QueryBuilder) BuildQueries(ctx context.Context, instruction, fullTask string, m int) ([]string, error) {
	if b.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if m <= 0 {
		m = domain.DefaultQueriesPerSubtask
	}

	userPrompt := fmt.Sprintf(`Full task:
%s

Current subtask:
%s

Generate exactly %d diversified retrieval queries. Use different angles, e.g.:
- verification & measurement ('compliance rate', 'interdictions', 'price/availability signal'),
- mechanisms & incentives ('enforcement mechanism', 'verification protocol', 'counterparty incentive'),
- benchmarks & history ('past agreement outcomes', 'comparative baseline 2018-2022'),
- counterpoints & limitations,
- metrics to watch (next 90 days).

Good patterns:
- include entities, dates, places, mechanism keywords
- optional operators like site:, filetype:, or quoted phrases

Return ONLY a numbered list:
1. Query text...
2. Query text...
`, fullTask, instruction, m)

	messages := []driven.ChatMessage{
		{Role: "system", Content: loadPrompt(b.promptStore, driven.PromptQueryBuilderSystem, defaultQueryBuilderSystem)},
		{Role: "user", Content: userPrompt},
	}

	text, err := b.llm.Chat(ctx, messages, driven.ChatOptions{
		Temperature: 0.5,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, fmt.Errorf("build queries: %w", err)
	}

	queries := parseNumberedList(text, m)
	if len(queries) < m {
		logger.Debug("Query builder produced %d of %d queries", len(queries), m)
	}
	return queries, nil
}
