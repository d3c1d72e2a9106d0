package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
)

func TestBuildQueries_ParsesList(t *testing.T) {
	llm := &mockLLMService{responses: []string{
		"1. ceasefire compliance rate site:gov\n" +
			"2. \"verification protocol\" interdictions 2024\n" +
			"3. past agreement outcomes baseline",
	}}
	builder := NewQueryBuilder(llm)

	queries, err := builder.BuildQueries(context.Background(), "Examine verification", "full task", 3)

	require.NoError(t, err)
	require.Len(t, queries, 3)
	assert.Equal(t, "ceasefire compliance rate site:gov", queries[0])
}

func TestBuildQueries_CapsAtRequested(t *testing.T) {
	llm := &mockLLMService{responses: []string{"1. one\n2. two\n3. three\n4. four\n5. five"}}
	builder := NewQueryBuilder(llm)

	queries, err := builder.BuildQueries(context.Background(), "sub", "task", 2)

	require.NoError(t, err)
	assert.Len(t, queries, 2)
}

func TestBuildQueries_FewerIsNotAnError(t *testing.T) {
	llm := &mockLLMService{responses: []string{"1. just one angle"}}
	builder := NewQueryBuilder(llm)

	queries, err := builder.BuildQueries(context.Background(), "sub", "task", 4)

	require.NoError(t, err)
	assert.Len(t, queries, 1)
}

func TestBuildQueries_ZeroCountUsesDefault(t *testing.T) {
	llm := &mockLLMService{responses: []string{"1. a\n2. b\n3. c\n4. d"}}
	builder := NewQueryBuilder(llm)

	queries, err := builder.BuildQueries(context.Background(), "sub", "task", 0)

	require.NoError(t, err)
	assert.Len(t, queries, domain.DefaultQueriesPerSubtask)
}

func TestBuildQueries_NilLLM(t *testing.T) {
	builder := NewQueryBuilder(nil)

	_, err := builder.BuildQueries(context.Background(), "sub", "task", 3)

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestBuildQueries_IncludesSubtaskAndTask(t *testing.T) {
	llm := &mockLLMService{responses: []string{"1. q"}}
	builder := NewQueryBuilder(llm)

	_, err := builder.BuildQueries(context.Background(), "the subtask brief", "the full assignment", 1)

	require.NoError(t, err)
	require.Len(t, llm.calls, 1)
	user := llm.calls[0][1].Content
	assert.Contains(t, user, "the subtask brief")
	assert.Contains(t, user, "the full assignment")
}
