package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
)

// Ensure Consolidator implements the optional prompt-store injection.
var _ driven.PromptStoreAware = (*Consolidator)(nil)

// defaultConsolidatorSystem is the fallback system prompt when no
// PromptStore is configured.
const defaultConsolidatorSystem = "You are a veteran magazine features editor. " +
	"Combine the drafts into one cohesive analysis post. " +
	"Voice: confident, sharp, plainspoken; avoid jargon unless necessary and define it once."

// Consolidator merges section drafts into one cohesive final body.
type Consolidator struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewConsolidator creates a new consolidator.
func NewConsolidator(llm driven.LLMService) *Consolidator {
	return &Consolidator{llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (c *Consolidator) SetPromptStore(store driven.PromptStore) {
	c.promptStore = store
}

// Consolidate merges the drafted sections into the final post body.
// The word target is advisory; the model may exceed it when evidence
// density requires, and output is never truncated mid-sentence here.
// Two deterministic post-passes run on the result: heading demotion and
// the profanity safety filter.
func (c *Consolidator) Consolidate(
	ctx context.Context, taskPrompt string, subtasks []domain.Subtask, style domain.StyleOptions,
) (string, error) {
	if c.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	style = style.Normalise()

	drafts := make([]string, 0, len(subtasks))
	for _, s := range subtasks {
		if s.Draft != "" {
			drafts = append(drafts, s.Draft)
		}
	}
	combined := strings.Join(drafts, "\n\n---\n\n")

	systemPrompt := loadPrompt(c.promptStore, driven.PromptConsolidatorSystem, defaultConsolidatorSystem) +
		"\n" + profanityStyle(style)

	overall := overallProfanityTarget(style, len(subtasks))
	var profanityRule string
	switch style.Profanity {
	case domain.ProfanityBleeped:
		profanityRule = fmt.Sprintf("Profanity may appear throughout but must be bleeped (e.g., f**k, sh*t). "+
			"Natural distribution; overall target ≈ %d. ", overall)
	case domain.ProfanitySpicy:
		profanityRule = fmt.Sprintf("Profanity may appear throughout (uncensored). "+
			"Keep it purposeful; overall target ≈ %d. ", overall)
	case domain.ProfanityMild:
		profanityRule = fmt.Sprintf("Light profanity may appear sparingly; overall target ≈ %d. ",
			maxInt(1, len(subtasks)/2))
	}

	userPrompt := fmt.Sprintf(`Original task (scope/tone):
%s

Section drafts (separated by ---):
%s

Now produce a single blog post that:
- Opens with a snappy 1-2 sentence lead that frames the stakes.
- Follows with a short hook that questions the headline narrative.
- Flows logically; remove duplication; tighten language.
- Preserves facts and '(see: SOURCE ...)' attributions where present.
- Ends with 3-6 concrete metrics to watch over the next 90 days.

%s
Constraints:
- Profanity must never use slurs or harass protected classes.
- ~%d-%d words unless the content requires more.
- Return ONLY the final post body (no YAML; no extra commentary).`,
		taskPrompt, combined, profanityRule,
		domain.DefaultWordTargetMin, domain.DefaultWordTargetMax)

	messages := []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	text, err := c.llm.Chat(ctx, messages, driven.ChatOptions{
		Temperature: 0.62,
		MaxTokens:   5000,
	})
	if err != nil {
		return "", fmt.Errorf("consolidate drafts: %w", err)
	}

	body := strings.TrimSpace(text)
	body = stripHeadings(body)
	body = applyProfanityFilter(body, style.Profanity)
	return body, nil
}
