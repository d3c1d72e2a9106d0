package driving

import (
	"context"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
)

// RetrievalService exposes hybrid retrieval directly, mainly for the
// 'search' debug command and for tooling built on top of the store.
type RetrievalService interface {
	// Retrieve runs one hybrid lexical+vector retrieval for the query.
	// An empty result is a valid outcome, not an error.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.RetrievalHit, error)
}
