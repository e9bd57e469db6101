package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

const (
	maxDescriptionWidth = 70
	maxDocumentWidth    = 24
)

// printReport writes the per-file status lines, the gap table and any
// diagnostics.
func printReport(w io.Writer, report *domain.AnalysisReport, limit int) {
	printFileStatus(w, report)
	fmt.Fprintln(w)

	if report.Backend != "" {
		fmt.Fprintf(w, "Backend: %s (%s)\n", report.Backend, report.Duration.Round(time.Millisecond))
	}

	if len(report.Gaps) == 0 {
		fmt.Fprintln(w, "No research gaps found.")
	} else {
		fmt.Fprintln(w, gapTable(report.Gaps, limit))
		if limit > 0 && len(report.Gaps) > limit {
			fmt.Fprintf(w, "... %d more gap(s); use --limit 0, --json or --export to see all\n", len(report.Gaps)-limit)
		}
	}

	printDiagnostics(w, report)
}

// printFileStatus prints one line per input file.
func printFileStatus(w io.Writer, report *domain.AnalysisReport) {
	for _, d := range report.Documents {
		suffix := ""
		if d.KeywordOnly {
			suffix = " (keyword screening only)"
		}
		fmt.Fprintf(w, "%s: %d gap(s) found%s\n", d.Filename, d.GapCount, suffix)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "%s: failed (%s)\n", f.Filename, f.Error)
	}
}

func gapTable(gaps []domain.Gap, limit int) string {
	if limit > 0 && len(gaps) > limit {
		gaps = gaps[:limit]
	}

	rows := make([][]string, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, []string{
			fmt.Sprintf("%.2f", g.InsightScore),
			truncate(g.DocumentName, maxDocumentWidth),
			fmt.Sprintf("%d", g.Page),
			g.Type.String(),
			truncate(strings.Join(strings.Fields(g.Description), " "), maxDescriptionWidth),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SCORE", "DOCUMENT", "PAGE", "TYPE", "DESCRIPTION").
		Rows(rows...).
		String()
}

func printDiagnostics(w io.Writer, report *domain.AnalysisReport) {
	for _, warn := range report.Warnings {
		if warn.Filename != "" {
			fmt.Fprintf(w, "Warning: %s: %s\n", warn.Filename, warn.Message)
			continue
		}
		fmt.Fprintf(w, "Warning: %s\n", warn.Message)
	}
	if n := len(report.Undetermined); n > 0 {
		fmt.Fprintf(w, "%d candidate passage(s) could not be classified after retries; run again to retry them.\n", n)
	}
	if report.Cancelled {
		fmt.Fprintln(w, "Analysis was cancelled; results are partial.")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
