package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driving"
	"github.com/newsquill-labs/newsquill-cli/internal/logger"
)

// Ensure GenerationService implements the driving port.
var _ driving.GenerationService = (*GenerationService)(nil)

// GenerationService orchestrates the full pipeline: plan sections, build
// queries, retrieve evidence, draft each section, consolidate into one post.
type GenerationService struct {
	planner      *Planner
	queryBuilder *QueryBuilder
	retriever    driving.RetrievalService
	drafter      *Drafter
	consolidator *Consolidator
	runLog       driven.RunLogStore
}

// NewGenerationService wires the pipeline agents together. runLog may be
// nil; run auditing is best-effort.
func NewGenerationService(
	planner *Planner,
	queryBuilder *QueryBuilder,
	retriever driving.RetrievalService,
	drafter *Drafter,
	consolidator *Consolidator,
	runLog driven.RunLogStore,
) *GenerationService {
	return &GenerationService{
		planner:      planner,
		queryBuilder: queryBuilder,
		retriever:    retriever,
		drafter:      drafter,
		consolidator: consolidator,
		runLog:       runLog,
	}
}

// defaultAngle frames the argument when the caller gives none.
const defaultAngle = "challenge the headline; judge by verification, not vibes"

// Generate runs the pipeline end to end. Errors carry their pipeline
// stage and, for per-section stages, the subtask ID.
func (g *GenerationService) Generate(ctx context.Context, task domain.BlogTask) (*domain.BlogResult, error) {
	task = task.Normalise()
	if strings.TrimSpace(task.Topic) == "" || strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("%w: title and topic are required", domain.ErrInvalidInput)
	}

	runUID := uuid.New().String()
	logger.Debug("Generation run %s: %s", runUID, task.Topic)

	masterPrompt := g.buildMasterPrompt(task)

	logger.Section("Planning")
	var subtasks []domain.Subtask
	err := withRetry(ctx, "planner", func() error {
		var planErr error
		subtasks, planErr = g.planner.Plan(ctx, masterPrompt, task.NumSubtasks)
		return planErr
	})
	if err != nil {
		return nil, domain.NewStageError(domain.StagePlanning, "", err)
	}
	logger.Info("Planned %d subtasks", len(subtasks))

	logger.Section("Retrieving Evidence")
	var hookHints []string
	for i := range subtasks {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewStageError(domain.StageRetrieving, subtasks[i].ID, err)
		}
		hint, err := g.gatherEvidence(ctx, &subtasks[i], masterPrompt, task)
		if err != nil {
			return nil, domain.NewStageError(domain.StageRetrieving, subtasks[i].ID, err)
		}
		if hint != "" {
			hookHints = append(hookHints, hint)
		}
		logger.Info("%s: %d queries, %d evidence snippets",
			subtasks[i].ID, len(subtasks[i].Queries), len(subtasks[i].Evidence))
	}

	logger.Section("Drafting Sections")
	for i := range subtasks {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewStageError(domain.StageDrafting, subtasks[i].ID, err)
		}
		var draft string
		err := withRetry(ctx, "drafter", func() error {
			var draftErr error
			draft, draftErr = g.drafter.Draft(ctx, &subtasks[i], task.Style)
			return draftErr
		})
		if err != nil {
			return nil, domain.NewStageError(domain.StageDrafting, subtasks[i].ID, err)
		}
		subtasks[i].Draft = draft
	}

	logger.Section("Consolidating")
	var body string
	err = withRetry(ctx, "consolidator", func() error {
		var consErr error
		body, consErr = g.consolidator.Consolidate(ctx, masterPrompt, subtasks, task.Style)
		return consErr
	})
	if err != nil {
		return nil, domain.NewStageError(domain.StageConsolidating, "", err)
	}

	now := time.Now()
	hook := hookFromHints(hookHints, task.Topic)
	markdown := assembleMarkdown(task, body, hook, now)

	result := &domain.BlogResult{
		Markdown:    markdown,
		Subtasks:    subtasks,
		GeneratedAt: now,
	}
	if task.IncludeSocial {
		result.Social = socialBlurb(task.Topic, hook)
	}

	g.appendRunLog(ctx, runUID, task, masterPrompt, markdown)
	return result, nil
}

// buildMasterPrompt renders the assignment the planner decomposes and every
// downstream agent sees as shared context.
func (g *GenerationService) buildMasterPrompt(task domain.BlogTask) string {
	angle := task.Angle
	if strings.TrimSpace(angle) == "" {
		angle = defaultAngle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a detailed, multi-section blog post (opinion/analysis) on:\n")
	fmt.Fprintf(&b, "Topic: %s\n", task.Topic)
	fmt.Fprintf(&b, "Angle: %s\n", angle)
	fmt.Fprintf(&b, "Audience: %s\n", task.Audience)
	fmt.Fprintf(&b, "Tone: %s\n\n", task.Tone)
	b.WriteString(profanityStyle(task.Style) + "\n")
	b.WriteString(readabilityStyle(task.Style.GradeLevel) + "\n\n")
	b.WriteString(`Structure goals:
- Catchy lead; provocative hook that questions the headline narrative.
- Evidence-focused body USING the provided source snippets; attribute facts briefly.
- Historical/benchmark context; counterpoints and limitations.
- End with "So what, now what" and concrete metrics to watch.

Constraints:
- Prefer verifiable claims over slogans; mark uncertainty honestly.
`)
	if strings.TrimSpace(task.Brief) != "" {
		b.WriteString("\nAdditional guidance:\n" + strings.TrimSpace(task.Brief) + "\n")
	}
	return b.String()
}

// gatherEvidence builds queries for one subtask, retrieves per query, and
// fills sub.Evidence with deduplicated hits capped at TopK. Returns the
// first query as a hook hint.
func (g *GenerationService) gatherEvidence(
	ctx context.Context, sub *domain.Subtask, masterPrompt string, task domain.BlogTask,
) (string, error) {
	var queries []string
	err := withRetry(ctx, "query builder", func() error {
		var qErr error
		queries, qErr = g.queryBuilder.BuildQueries(ctx, sub.Instruction, masterPrompt, task.QueriesPerSubtask)
		return qErr
	})
	if err != nil {
		return "", err
	}
	sub.Queries = queries

	opts := task.Retrieval.Normalise()
	seen := make(map[string]bool)
	var evidence []domain.RetrievalHit
	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		hits, err := g.retriever.Retrieve(ctx, query, opts)
		if err != nil {
			return "", fmt.Errorf("retrieve %q: %w", query, err)
		}
		for _, hit := range hits {
			fp := textFingerprint(hit.Text)
			if seen[fp] {
				continue
			}
			seen[fp] = true
			evidence = append(evidence, hit)
		}
	}
	if len(evidence) > opts.TopK {
		evidence = evidence[:opts.TopK]
	}
	sub.Evidence = evidence

	if len(queries) > 0 {
		return queries[0], nil
	}
	return "", nil
}

// hookFromHints picks the teaser hook: the first retrieval query when one
// exists, otherwise a verification-flavoured fallback.
func hookFromHints(hints []string, topic string) string {
	if len(hints) > 0 && strings.TrimSpace(hints[0]) != "" {
		return strings.TrimSpace(hints[0])
	}
	return fmt.Sprintf("The real story behind %s is in the verification math.", topic)
}

// assembleMarkdown renders the final document: front matter, the title as
// an H1, then the consolidated body.
func assembleMarkdown(task domain.BlogTask, body, hook string, now time.Time) string {
	tags := task.Tags
	if len(tags) == 0 {
		tags = []string{task.Category, task.Tone, domain.Slugify(task.Topic)}
	}
	summary := fmt.Sprintf("%s: %s", task.Topic, firstWords(hook, 24))

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", jsonValue(task.Title))
	fmt.Fprintf(&b, "slug: %s\n", jsonValue(domain.Slugify(task.Title)))
	fmt.Fprintf(&b, "date: %s\n", jsonValue(now.Format("2006-01-02T15:04:05")))
	fmt.Fprintf(&b, "author: %s\n", jsonValue(task.Author))
	fmt.Fprintf(&b, "category: %s\n", jsonValue(task.Category))
	encoded := make([]string, len(tags))
	for i, tag := range tags {
		encoded[i] = jsonValue(tag)
	}
	fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(encoded, ", "))
	fmt.Fprintf(&b, "summary: %s\n", jsonValue(summary))
	b.WriteString("---")

	fmt.Fprintf(&b, "\n\n# %s\n\n%s\n", task.Title, body)
	return b.String()
}

// jsonValue encodes a front-matter scalar. JSON strings are valid YAML
// scalars, so quoting and escaping come for free.
func jsonValue(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(out)
}

// firstWords truncates s to at most n words.
func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}

// appendRunLog records the run for audit. Failures are logged, never fatal:
// a finished post is worth more than a complete audit trail.
func (g *GenerationService) appendRunLog(ctx context.Context, runUID string, task domain.BlogTask, prompt, output string) {
	if g.runLog == nil {
		return
	}
	run := domain.RunRecord{
		RunUID:    runUID,
		Topic:     task.Topic,
		Prompt:    prompt,
		Output:    output,
		CreatedAt: time.Now(),
	}
	if err := g.runLog.AppendRun(ctx, run); err != nil {
		logger.Warn("Failed to record generation run: %v", err)
	}
}
