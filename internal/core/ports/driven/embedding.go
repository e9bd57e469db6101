package driven

import "context"

// EmbeddingService generates vector embeddings for text.
// This is an optional service - if nil, documents are analysed in
// keyword-only mode.
type EmbeddingService interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result has one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size, or 0 if unknown
	// until the first call.
	Dimensions() int

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Ping validates that the embedding service is reachable and configured.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
