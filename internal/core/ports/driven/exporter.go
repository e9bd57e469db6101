package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// ExportColumns is the fixed column order of tabular exports.
var ExportColumns = []string{
	"document", "page", "gap_type", "description", "evidence_text", "suggestion", "insight_score",
}

// Exporter serialises a result set.
type Exporter interface {
	// Format returns the format name (csv, xlsx, json, sqlite).
	Format() string

	// Extensions lists the file extensions handled by this exporter.
	Extensions() []string

	// Export writes one row per gap to w.
	Export(ctx context.Context, w io.Writer, gaps []domain.Gap) error
}

// PathExporter is implemented by exporters that write to a file directly
// rather than through a stream, such as a database that sessions are
// appended to.
type PathExporter interface {
	Exporter

	// ExportPath writes gaps into the file at path, creating it if needed.
	ExportPath(ctx context.Context, path string, gaps []domain.Gap) error
}
