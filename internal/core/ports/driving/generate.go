// Package driving provides interfaces for use-case entry points (primary/inbound ports).
package driving

import (
	"context"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
)

// GenerationService runs the full blog generation pipeline:
// plan sections, retrieve evidence, draft, consolidate.
type GenerationService interface {
	// Generate produces a finished blog post for the task.
	// Cancellation via ctx stops between pipeline steps; partial
	// per-section state is returned inside the StageError's result
	// where salvage is possible.
	Generate(ctx context.Context, task domain.BlogTask) (*domain.BlogResult, error)
}
