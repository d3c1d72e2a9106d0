package hash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_Deterministic(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	ctx := context.Background()

	a, err := svc.Embed(ctx, "the same text")
	require.NoError(t, err)
	b, err := svc.Embed(ctx, "the same text")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEmbed_DimensionsAndRange(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 512})
	ctx := context.Background()

	vec, err := svc.Embed(ctx, "range check")
	require.NoError(t, err)
	require.Len(t, vec, 512)
	assert.Equal(t, 512, svc.Dimensions())

	for _, v := range vec {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestEmbed_DifferentTextsDiffer(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	ctx := context.Background()

	a, err := svc.Embed(ctx, "first")
	require.NoError(t, err)
	b, err := svc.Embed(ctx, "second")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	ctx := context.Background()

	vecs, err := svc.EmbedBatch(ctx, []string{"one", "two", "one"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, vecs[0], vecs[2])
	assert.NotEqual(t, vecs[0], vecs[1])

	empty, err := svc.EmbedBatch(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestModelNameIsDistinct(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.Equal(t, "hashing-embed-v1", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
