package driven

import "context"

// VectorHit is a single nearest-neighbour result.
type VectorHit struct {
	// ChunkID identifies the chunk the vector belongs to.
	ChunkID string

	// Similarity is the cosine similarity in [-1, 1].
	Similarity float64
}

// VectorIndex stores vectors for one document and answers similarity queries.
// Results are ordered by similarity descending; equal similarities keep
// insertion order.
type VectorIndex interface {
	// Add inserts a vector. All vectors of an index share one dimensionality.
	Add(ctx context.Context, chunkID string, vector []float32) error

	// Search returns up to k nearest vectors.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of stored vectors.
	Len() int

	// Close discards the index.
	Close() error
}

// VectorIndexFactory creates empty per-document indices.
type VectorIndexFactory interface {
	NewIndex(dimensions int) (VectorIndex, error)
}
