package services

import (
	"context"
	"errors"
	"time"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/logger"
)

const (
	retryAttempts = 3
	retryBaseWait = 2 * time.Second
)

// withRetry runs fn up to retryAttempts times, backing off exponentially
// between attempts. Only rate-limit errors are retried; everything else
// (including context cancellation) returns immediately.
func withRetry(ctx context.Context, label string, fn func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			wait := retryBaseWait << (attempt - 1)
			logger.Warn("%s rate limited, retrying in %s (attempt %d/%d)", label, wait, attempt+1, retryAttempts)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrRateLimited) {
			return err
		}
	}
	return err
}
