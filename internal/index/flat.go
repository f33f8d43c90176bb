// Package index provides the flat vector index that backs document
// search. Vectors and their source chunks are kept as aligned lists;
// search is an exact scan over squared Euclidean distance, which
// preserves L2 ordering without the square root.
package index

import (
	"container/heap"
	"fmt"
	"sync"

	aderrors "github.com/askdoc/askdoc/internal/errors"
)

// Result is one search hit.
type Result struct {
	// Position is the insertion position of the chunk in the index.
	Position int
	// Chunk is the stored text.
	Chunk string
	// Distance is the squared Euclidean distance to the query.
	Distance float32
}

// Flat is an exact, append-only vector index. Entry i of the vector
// list corresponds to entry i of the chunk list at all times.
type Flat struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	chunks  []string
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) *Flat {
	return &Flat{dim: dim}
}

// Add appends vector/chunk pairs. The call is all-or-nothing: inputs
// are validated in full before anything is appended.
func (f *Flat) Add(vectors [][]float32, chunks []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(vectors) != len(chunks) {
		return aderrors.New(aderrors.ErrCodeAlignment,
			fmt.Sprintf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}
	for i, vec := range vectors {
		if len(vec) != f.dim {
			return aderrors.New(aderrors.ErrCodeDimensionMismatch,
				fmt.Sprintf("vector %d has %d dimensions, index expects %d", i, len(vec), f.dim))
		}
	}

	f.vectors = append(f.vectors, vectors...)
	f.chunks = append(f.chunks, chunks...)
	return nil
}

// Search scans every stored vector and returns the min(k, Size())
// nearest chunks ascending by distance. Searching an empty index
// returns an empty result set.
func (f *Flat) Search(query []float32, k int) ([]Result, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if k < 1 {
		return nil, aderrors.New(aderrors.ErrCodeBadQuery,
			fmt.Sprintf("k must be at least 1, got %d", k))
	}
	if len(query) != f.dim {
		return nil, aderrors.New(aderrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("query has %d dimensions, index expects %d", len(query), f.dim))
	}
	if len(f.vectors) == 0 {
		return []Result{}, nil
	}

	if k > len(f.vectors) {
		k = len(f.vectors)
	}

	// Capped max-heap: the root is the worst candidate, replaced
	// whenever a closer vector turns up.
	top := make(resultHeap, 0, k)
	for i, vec := range f.vectors {
		d := squaredL2(query, vec)
		if top.Len() < k {
			heap.Push(&top, Result{Position: i, Chunk: f.chunks[i], Distance: d})
			continue
		}
		if d < top[0].Distance {
			heap.Pop(&top)
			heap.Push(&top, Result{Position: i, Chunk: f.chunks[i], Distance: d})
		}
	}

	results := make([]Result, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		results[i] = heap.Pop(&top).(Result)
	}
	return results, nil
}

// Size returns the number of stored chunks.
func (f *Flat) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.chunks)
}

// Dim returns the vector dimension the index accepts.
func (f *Flat) Dim() int {
	return f.dim
}

// squaredL2 computes the squared Euclidean distance between two
// vectors of equal length.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// resultHeap is a max-heap of results ordered by distance.
type resultHeap []Result

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) { *h = append(*h, x.(Result)) }

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
