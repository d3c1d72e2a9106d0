package services

import (
	"context"
	"fmt"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
	"github.com/newsquill-labs/newsquill-cli/internal/logger"
)

// Ensure Planner implements the optional prompt-store injection.
var _ driven.PromptStoreAware = (*Planner)(nil)

// defaultPlannerSystem is the fallback system prompt when no PromptStore
// is configured.
const defaultPlannerSystem = "You are a senior blog editor and planning agent. " +
	"Break a single blog assignment into sharply distinct subtasks that together form a compelling analysis post. " +
	"Stay strictly on-topic. Avoid overlap. No fluff."

// Planner decomposes one writing task into independent section subtasks.
type Planner struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewPlanner creates a new planner.
func NewPlanner(llm driven.LLMService) *Planner {
	return &Planner{llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (p *Planner) SetPromptStore(store driven.PromptStore) {
	p.promptStore = store
}

// Plan breaks the task prompt into up to n subtasks. Under-generation is a
// soft warning, never an error, as long as at least one subtask parsed.
func (p *Planner) Plan(ctx context.Context, taskPrompt string, n int) ([]domain.Subtask, error) {
	if p.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if n <= 0 {
		n = domain.DefaultNumSubtasks
	}

	userPrompt := fmt.Sprintf(`Task:
%s

Break this into exactly %d numbered subtasks for a persuasive, evidence-based blog post.
Cover (where applicable): snappy lead & hook; verification/mechanisms; stakeholders & incentives; historical benchmarks;
counterpoints/limitations; metrics-to-watch (90-day scoreboard); synthesis & call-to-action. If %d < sections, merge smartly.

Rules:
- One sentence per subtask, <= 18 words, imperative voice, no overlap, no numbering in the sentence itself.
- Must be directly relevant to the task and independently executable.

Return ONLY a numbered list, e.g.:
1. Write a snappy lead that frames the tension and stakes.
2. ...
`, taskPrompt, n, n)

	messages := []driven.ChatMessage{
		{Role: "system", Content: loadPrompt(p.promptStore, driven.PromptPlannerSystem, defaultPlannerSystem)},
		{Role: "user", Content: userPrompt},
	}

	text, err := p.llm.Chat(ctx, messages, driven.ChatOptions{
		Temperature: 0.4,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, fmt.Errorf("plan subtasks: %w", err)
	}

	instructions := parseNumberedList(text, n)
	if len(instructions) == 0 {
		return nil, domain.ErrEmptyPlan
	}
	if len(instructions) < n {
		logger.Warn("Planner under-generated: %d of %d subtasks", len(instructions), n)
	}

	subtasks := make([]domain.Subtask, len(instructions))
	for i, instruction := range instructions {
		subtasks[i] = domain.Subtask{
			ID:          fmt.Sprintf("task_%d", i+1),
			Instruction: instruction,
			Context:     taskPrompt,
		}
	}
	return subtasks, nil
}

// loadPrompt loads a prompt from the store, falling back to the default
// if the store is absent or the load fails.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}
