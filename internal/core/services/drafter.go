package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
)

// Ensure Drafter implements the optional prompt-store injection.
var _ driven.PromptStoreAware = (*Drafter)(nil)

// defaultDrafterSystem is the fallback system prompt when no PromptStore
// is configured.
const defaultDrafterSystem = "You are a senior editorial writer for a policy analysis blog. " +
	"Write with clarity, edge, and receipts. Favor verification, mechanisms, incentives, and practical tradeoffs. " +
	"Cite sources using the provided [SOURCE] lines when drawing facts."

// Drafter writes one grounded prose section per subtask from its evidence.
type Drafter struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewDrafter creates a new drafter.
func NewDrafter(llm driven.LLMService) *Drafter {
	return &Drafter{llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (d *Drafter) SetPromptStore(store driven.PromptStore) {
	d.promptStore = store
}

// Draft writes the section for one subtask. Empty evidence is an explicit
// state: the model is told to stick to general framing and soft claims,
// never fabricated specifics.
func (d *Drafter) Draft(ctx context.Context, sub *domain.Subtask, style domain.StyleOptions) (string, error) {
	if d.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	style = style.Normalise()

	systemPrompt := loadPrompt(d.promptStore, driven.PromptDrafterSystem, defaultDrafterSystem) +
		"\n" + profanityStyle(style)

	target := sectionProfanityTarget(style)
	var profanitySpecific string
	switch style.Profanity {
	case domain.ProfanityBleeped:
		profanitySpecific = "When profanity is used, always **bleep** it (e.g., f**k, sh*t). "
	case domain.ProfanitySpicy:
		profanitySpecific = "Profanity, if used, is uncensored. "
	case domain.ProfanityMild:
		profanitySpecific = "Only light profanity (e.g., damn, hell). "
	}

	evidence := formatEvidence(sub.Evidence, style.Citations)
	var evidenceBlock string
	if evidence == "" {
		evidenceBlock = "No source snippets were retrieved for this subtask. " +
			"Rely only on general framing and clearly soft claims; state plainly where data is unavailable. " +
			"Do NOT invent figures, quotes, or attributions."
	} else {
		evidenceBlock = "Source snippets:\n" + evidence
	}

	userPrompt := fmt.Sprintf(`Assignment context (tone/scope):
%s

Subtask to write:
%s

%s

Write a multi-paragraph section that:
- Leads with the most decision-relevant point for THIS subtask.
- Weaves in specific facts from the snippets with brief attributions.
- Explains mechanisms/measurement; avoid generic hype.
- Ends with a one-sentence mini-takeaway.
- Aim for 140-240 words unless detail requires more.

Profanity usage target for THIS section: %d.
%sDistribute any profanities naturally (not all in one sentence).
Return ONLY the prose (no headings).`,
		sub.Context, sub.Instruction, evidenceBlock, target, profanitySpecific)

	messages := []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	text, err := d.llm.Chat(ctx, messages, driven.ChatOptions{
		Temperature: 0.68,
		MaxTokens:   1200,
	})
	if err != nil {
		return "", fmt.Errorf("draft section: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// formatEvidence renders retrieval hits for the prompt. Citation style is
// a presentation decision: evidence always carries structural fields, and
// only here do they become [SOURCE] headers or bare text.
func formatEvidence(hits []domain.RetrievalHit, citations domain.CitationStyle) string {
	if len(hits) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(hits))
	for _, hit := range hits {
		if citations == domain.CitationNone {
			blocks = append(blocks, hit.Text)
			continue
		}
		var meta []string
		if hit.Title != "" {
			meta = append(meta, hit.Title)
		}
		if hit.URL != "" {
			meta = append(meta, hit.URL)
		}
		if hit.PublishedAt != nil {
			meta = append(meta, hit.PublishedAt.Format("2006-01-02"))
		}
		if len(meta) > 0 {
			blocks = append(blocks, "[SOURCE] "+strings.Join(meta, " | ")+"\n"+hit.Text)
		} else {
			blocks = append(blocks, hit.Text)
		}
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}
