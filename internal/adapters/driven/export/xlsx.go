package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// Ensure XLSXExporter implements the interface.
var _ driven.Exporter = (*XLSXExporter)(nil)

// SheetName is the worksheet holding the gaps.
const SheetName = "Research Gaps"

// columnWidths matches driven.ExportColumns.
var columnWidths = []float64{28, 6, 16, 60, 60, 50, 12}

// XLSXExporter writes an Excel workbook with one sheet.
type XLSXExporter struct{}

// NewXLSXExporter creates an XLSX exporter.
func NewXLSXExporter() *XLSXExporter { return &XLSXExporter{} }

// Format returns "xlsx".
func (e *XLSXExporter) Format() string { return "xlsx" }

// Extensions returns ".xlsx".
func (e *XLSXExporter) Extensions() []string { return []string{".xlsx"} }

// Export writes a header row followed by one row per gap. Page and score
// are stored as numbers; the score cell shows two decimals.
func (e *XLSXExporter) Export(ctx context.Context, w io.Writer, gaps []domain.Gap) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}

	header := make([]any, len(driven.ExportColumns))
	for i, c := range driven.ExportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(driven.ExportColumns))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	scoreFmt := "0.00"
	score, err := f.NewStyle(&excelize.Style{CustomNumFmt: &scoreFmt})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	for i, g := range gaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, r)
		values := []any{
			g.DocumentName, g.Page, g.Type.String(), g.Description, g.Evidence, g.Suggestion,
			roundScore(g.InsightScore),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("xlsx row %d: %w", r, err)
		}
		first, _ := excelize.CoordinatesToCellName(4, r)
		last, _ := excelize.CoordinatesToCellName(6, r)
		if err := f.SetCellStyle(SheetName, first, last, wrap); err != nil {
			return fmt.Errorf("xlsx style: %w", err)
		}
		scoreCell, _ := excelize.CoordinatesToCellName(7, r)
		if err := f.SetCellStyle(SheetName, scoreCell, scoreCell, score); err != nil {
			return fmt.Errorf("xlsx style: %w", err)
		}
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("xlsx width: %w", err)
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("xlsx panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
