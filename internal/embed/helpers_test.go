package embed

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
)

// vectorMagnitude computes the L2 norm of a vector.
func vectorMagnitude(v []float32) float64 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// mockEmbedder is a test double that counts calls and can fail on demand.
type mockEmbedder struct {
	embedCalls atomic.Int64
	batchCalls atomic.Int64
	dims       int
	model      string
	failWith   error
	closed     atomic.Bool
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, model: "mock-model"}
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	vec := make([]float32, m.dims)
	for i := range vec {
		vec[i] = float32((len(text)+i)%7) * 0.1
	}
	return vec
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.embedCalls.Add(1)
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls.Add(1)
	if m.failWith != nil {
		return nil, m.failWith
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.vectorFor(text)
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }

func (m *mockEmbedder) ModelName() string { return m.model }

func (m *mockEmbedder) Close() error {
	if m.closed.Swap(true) {
		return fmt.Errorf("already closed")
	}
	return nil
}
