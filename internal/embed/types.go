// Package embed provides text embedding backends for document indexing
// and query matching.
//
// Two providers are available: a hosted OpenAI backend for production
// use and a deterministic hash-based embedder for offline operation and
// tests. Both produce unit-length vectors of the same dimensionality so
// they are interchangeable behind the Embedder interface.
package embed

import (
	"context"
	"math"
)

// Default embedding parameters.
const (
	// DefaultDimensions is the vector size shared by all providers.
	DefaultDimensions = 512

	// DefaultBatchSize caps how many texts are sent per backend request.
	DefaultBatchSize = 32
)

// Embedder converts text into fixed-size vectors.
type Embedder interface {
	// Embed converts a single text into a vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts in one call. Implementations
	// preserve input order: result[i] corresponds to texts[i].
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the size of vectors produced by this embedder.
	Dimensions() int

	// ModelName returns the identifier of the underlying model.
	ModelName() string

	// Close releases any resources held by the embedder.
	Close() error
}

// normalizeVector scales v to unit length in place. Zero vectors are
// left untouched.
func normalizeVector(v []float32) {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
