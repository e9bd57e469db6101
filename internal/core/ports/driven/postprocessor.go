package driven

import (
	"context"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// Chunker splits a document into ordered, overlapping chunks.
type Chunker interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process returns the chunks of the document.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
