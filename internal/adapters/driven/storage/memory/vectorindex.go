package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// Ensure VectorIndexFactory implements the interface.
var _ driven.VectorIndexFactory = (*VectorIndexFactory)(nil)

type entry struct {
	chunkID string
	vector  []float32
	norm    float64
}

// VectorIndex is an exact in-memory cosine index. A document holds at most a
// few hundred chunks, so a linear scan answers queries in microseconds.
type VectorIndex struct {
	mu         sync.RWMutex
	dimensions int
	entries    []entry
	closed     bool
}

// NewVectorIndex creates an index for vectors of the given size.
// A zero size is fixed by the first Add.
func NewVectorIndex(dimensions int) *VectorIndex {
	return &VectorIndex{dimensions: dimensions}
}

// Add inserts a vector.
func (v *VectorIndex) Add(_ context.Context, chunkID string, vector []float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return fmt.Errorf("vector index closed: %w", domain.ErrInvalidInput)
	}
	if len(vector) == 0 {
		return fmt.Errorf("empty vector for %s: %w", chunkID, domain.ErrInvalidInput)
	}
	if v.dimensions == 0 {
		v.dimensions = len(vector)
	}
	if len(vector) != v.dimensions {
		return fmt.Errorf("vector for %s has %d dimensions, index has %d: %w",
			chunkID, len(vector), v.dimensions, domain.ErrInvalidInput)
	}

	v.entries = append(v.entries, entry{chunkID: chunkID, vector: vector, norm: norm(vector)})
	return nil
}

// Search returns up to k entries by cosine similarity, highest first.
// Equal similarities keep insertion order.
func (v *VectorIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if k <= 0 || len(v.entries) == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != v.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(query), v.dimensions, domain.ErrInvalidInput)
	}

	qn := norm(query)
	hits := make([]driven.VectorHit, len(v.entries))
	for i, e := range v.entries {
		hits[i] = driven.VectorHit{ChunkID: e.chunkID, Similarity: cosine(query, qn, e.vector, e.norm)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Len returns the number of stored vectors.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// Close discards all vectors.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = nil
	v.closed = true
	return nil
}

// VectorIndexFactory creates in-memory vector indices.
type VectorIndexFactory struct{}

// NewIndex creates an empty index.
func (VectorIndexFactory) NewIndex(dimensions int) (driven.VectorIndex, error) {
	if dimensions < 0 {
		return nil, fmt.Errorf("negative dimensions: %w", domain.ErrInvalidInput)
	}
	return NewVectorIndex(dimensions), nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	sim := dot / (an * bn)
	// Clamp rounding drift
	return math.Max(-1, math.Min(1, sim))
}
