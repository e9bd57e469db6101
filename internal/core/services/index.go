package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

// DefaultEmbedBatchSize is the number of chunks sent per embedding request.
const DefaultEmbedBatchSize = 32

// EmbeddingIndex is the ephemeral vector index of one document. Chunk IDs
// only resolve within the index that stored them.
type EmbeddingIndex struct {
	documentID string
	embedder   driven.EmbeddingService
	vectors    driven.VectorIndex
	chunks     map[string]domain.Chunk
}

// BuildEmbeddingIndex embeds every chunk and stores the vectors. Any encoder
// failure, count mismatch or change of dimensionality is reported as
// *domain.EmbeddingError so the caller can fall back to keyword screening.
func BuildEmbeddingIndex(
	ctx context.Context,
	documentID string,
	chunks []domain.Chunk,
	embedder driven.EmbeddingService,
	factory driven.VectorIndexFactory,
	batchSize int,
) (*EmbeddingIndex, error) {
	if embedder == nil || factory == nil {
		return nil, &domain.EmbeddingError{DocumentID: documentID, Err: domain.ErrEmbeddingUnavailable}
	}
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}

	vectors, err := factory.NewIndex(embedder.Dimensions())
	if err != nil {
		return nil, &domain.EmbeddingError{DocumentID: documentID, Err: err}
	}

	idx := &EmbeddingIndex{
		documentID: documentID,
		embedder:   embedder,
		vectors:    vectors,
		chunks:     make(map[string]domain.Chunk, len(chunks)),
	}

	dims := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		embeddings, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			_ = vectors.Close()
			return nil, &domain.EmbeddingError{DocumentID: documentID, Err: fmt.Errorf("embed batch %d-%d: %w", start, end, err)}
		}
		if len(embeddings) != len(batch) {
			_ = vectors.Close()
			return nil, &domain.EmbeddingError{
				DocumentID: documentID,
				Err:        fmt.Errorf("encoder returned %d vectors for %d chunks", len(embeddings), len(batch)),
			}
		}

		for i, vec := range embeddings {
			if dims == 0 {
				dims = len(vec)
			}
			if len(vec) == 0 || len(vec) != dims {
				_ = vectors.Close()
				return nil, &domain.EmbeddingError{
					DocumentID: documentID,
					Err:        fmt.Errorf("inconsistent vector dimensions: got %d, want %d", len(vec), dims),
				}
			}
			if err := vectors.Add(ctx, batch[i].ID, vec); err != nil {
				_ = vectors.Close()
				return nil, &domain.EmbeddingError{DocumentID: documentID, Err: err}
			}
			idx.chunks[batch[i].ID] = batch[i]
		}
	}

	logger.Debug("indexed %d chunks of %s (%d dims, %s)", len(chunks), documentID, dims, embedder.ModelName())
	return idx, nil
}

// Len returns the number of indexed chunks.
func (i *EmbeddingIndex) Len() int {
	return len(i.chunks)
}

// Chunk resolves a chunk ID stored in this index.
func (i *EmbeddingIndex) Chunk(id string) (domain.Chunk, bool) {
	c, ok := i.chunks[id]
	return c, ok
}

// Query returns at most k chunks ordered by cosine similarity, highest
// first; equal similarities are ordered by chunk position. k is clamped to
// the number of chunks and k <= 0 yields no results.
func (i *EmbeddingIndex) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 || len(i.chunks) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	k = min(k, len(i.chunks))

	vec, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, &domain.EmbeddingError{DocumentID: i.documentID, Err: fmt.Errorf("embed query: %w", err)}
	}

	hits, err := i.vectors.Search(ctx, vec, k)
	if err != nil {
		return nil, &domain.EmbeddingError{DocumentID: i.documentID, Err: err}
	}

	results := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		c, ok := i.chunks[h.ChunkID]
		if !ok {
			continue
		}
		results = append(results, domain.ScoredChunk{Chunk: c, Similarity: h.Similarity, Query: text})
	}
	sortScored(results)
	return results, nil
}

// Close discards the index.
func (i *EmbeddingIndex) Close() error {
	i.chunks = nil
	return i.vectors.Close()
}
