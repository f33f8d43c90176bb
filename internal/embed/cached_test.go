package embed

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedder_CacheHitSkipsInner(t *testing.T) {
	// Given: a cached embedder
	inner := newMockEmbedder(DefaultDimensions)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	ctx := context.Background()
	text := "What is the boiling point of water?"

	// When: I embed the same text twice
	vec1, err1 := cached.Embed(ctx, text)
	vec2, err2 := cached.Embed(ctx, text)

	// Then: the inner embedder is called only once
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, int64(1), inner.embedCalls.Load())
	assert.Equal(t, vec1, vec2)

	hits, misses := cached.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCachedEmbedder_DistinctTextsMiss(t *testing.T) {
	inner := newMockEmbedder(DefaultDimensions)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	ctx := context.Background()
	_, err := cached.Embed(ctx, "first question")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "second question")
	require.NoError(t, err)

	assert.Equal(t, int64(2), inner.embedCalls.Load())
}

func TestCachedEmbedder_BatchSendsOnlyMisses(t *testing.T) {
	// Given: one text already cached
	inner := newMockEmbedder(DefaultDimensions)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	ctx := context.Background()
	_, err := cached.Embed(ctx, "cached paragraph")
	require.NoError(t, err)

	// When: I batch-embed three texts including the cached one
	texts := []string{"new paragraph one", "cached paragraph", "new paragraph two"}
	vecs, err := cached.EmbedBatch(ctx, texts)

	// Then: the inner batch call receives only the two misses and
	// results line up with the input order
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, int64(1), inner.batchCalls.Load())
	for i, text := range texts {
		assert.Equal(t, inner.vectorFor(text), vecs[i], "vecs[%d]", i)
	}
}

func TestCachedEmbedder_FullyCachedBatchSkipsInner(t *testing.T) {
	inner := newMockEmbedder(DefaultDimensions)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	ctx := context.Background()
	texts := []string{"alpha", "beta"}
	_, err := cached.EmbedBatch(ctx, texts)
	require.NoError(t, err)

	_, err = cached.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inner.batchCalls.Load())
}

func TestCachedEmbedder_InnerErrorPropagates(t *testing.T) {
	inner := newMockEmbedder(DefaultDimensions)
	inner.failWith = fmt.Errorf("backend down")
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	_, err := cached.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}

func TestCachedEmbedder_KeyIncludesModelName(t *testing.T) {
	// Given: two caches over embedders with different model names
	innerA := newMockEmbedder(DefaultDimensions)
	innerB := newMockEmbedder(DefaultDimensions)
	innerB.model = "other-model"
	cachedA := NewCachedEmbedder(innerA, 100)
	cachedB := NewCachedEmbedder(innerB, 100)

	// Then: the same text maps to different cache keys
	assert.NotEqual(t, cachedA.cacheKey("same text"), cachedB.cacheKey("same text"))
}

func TestCachedEmbedder_CloseClosesInner(t *testing.T) {
	inner := newMockEmbedder(DefaultDimensions)
	cached := NewCachedEmbedder(inner, 100)

	require.NoError(t, cached.Close())
	assert.True(t, inner.closed.Load())
}

func TestCachedEmbedder_DelegatesMetadata(t *testing.T) {
	inner := newMockEmbedder(256)
	cached := NewCachedEmbedder(inner, 10)
	defer func() { _ = cached.Close() }()

	assert.Equal(t, 256, cached.Dimensions())
	assert.Equal(t, "mock-model", cached.ModelName())
}

func TestCachedEmbedder_NonPositiveSizeUsesDefault(t *testing.T) {
	inner := newMockEmbedder(DefaultDimensions)
	cached := NewCachedEmbedder(inner, 0)
	defer func() { _ = cached.Close() }()

	_, err := cached.Embed(context.Background(), "works fine")
	assert.NoError(t, err)
}
