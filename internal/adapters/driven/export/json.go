package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// Ensure JSONExporter implements the interface.
var _ driven.Exporter = (*JSONExporter)(nil)

// jsonRow is the exported shape of a gap.
type jsonRow struct {
	Document     string  `json:"document"`
	Page         int     `json:"page"`
	GapType      string  `json:"gap_type"`
	Description  string  `json:"description"`
	EvidenceText string  `json:"evidence_text"`
	Suggestion   string  `json:"suggestion"`
	InsightScore float64 `json:"insight_score"`
	Title        string  `json:"title,omitempty"`
	DOI          string  `json:"doi,omitempty"`
}

// JSONExporter writes an indented JSON array.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

// Format returns "json".
func (e *JSONExporter) Format() string { return "json" }

// Extensions returns ".json".
func (e *JSONExporter) Extensions() []string { return []string{".json"} }

// Export writes all gaps as one array. An empty result is "[]".
func (e *JSONExporter) Export(ctx context.Context, w io.Writer, gaps []domain.Gap) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([]jsonRow, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, jsonRow{
			Document:     g.DocumentName,
			Page:         g.Page,
			GapType:      g.Type.String(),
			Description:  g.Description,
			EvidenceText: g.Evidence,
			Suggestion:   g.Suggestion,
			InsightScore: roundScore(g.InsightScore),
			Title:        g.Title,
			DOI:          g.DOI,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}
