package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// Ensure CSVExporter implements the interface.
var _ driven.Exporter = (*CSVExporter)(nil)

// CSVExporter writes RFC 4180 CSV with a header row.
type CSVExporter struct{}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter() *CSVExporter { return &CSVExporter{} }

// Format returns "csv".
func (e *CSVExporter) Format() string { return "csv" }

// Extensions returns ".csv".
func (e *CSVExporter) Extensions() []string { return []string{".csv"} }

// Export writes one row per gap.
func (e *CSVExporter) Export(ctx context.Context, w io.Writer, gaps []domain.Gap) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(driven.ExportColumns); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, g := range gaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cw.Write(row(g)); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
