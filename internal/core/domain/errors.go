package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Blog generation cannot run without a chat provider.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Hybrid retrieval and vector backfill are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrParseFailed indicates a provider response could not be parsed
	// into the expected structure.
	ErrParseFailed = errors.New("response parse failed")

	// ErrEmptyPlan indicates the planner produced no usable subtasks.
	ErrEmptyPlan = errors.New("planner returned no subtasks")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// PipelineStage identifies where in the generation pipeline an error occurred.
type PipelineStage string

// Pipeline stages, in execution order.
const (
	StagePlanning      PipelineStage = "planning"
	StageRetrieving    PipelineStage = "retrieving"
	StageDrafting      PipelineStage = "drafting"
	StageConsolidating PipelineStage = "consolidating"
)

// StageError wraps a failure with the pipeline stage and, where applicable,
// the subtask being processed. This makes multi-stage failures actionable:
// callers can tell a planning failure from a drafting failure on section 4.
type StageError struct {
	Stage   PipelineStage
	Subtask string // subtask ID, empty for task-level stages
	Err     error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Subtask != "" {
		return fmt.Sprintf("%s (%s): %v", e.Stage, e.Subtask, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage context.
func NewStageError(stage PipelineStage, subtask string, err error) *StageError {
	return &StageError{Stage: stage, Subtask: subtask, Err: err}
}
