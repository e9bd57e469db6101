package export

import (
	"math"
	"strconv"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// row returns the fixed export columns of a gap.
func row(g domain.Gap) []string {
	return []string{
		g.DocumentName,
		strconv.Itoa(g.Page),
		g.Type.String(),
		g.Description,
		g.Evidence,
		g.Suggestion,
		formatScore(g.InsightScore),
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

func roundScore(score float64) float64 {
	return math.Round(score*100) / 100
}
