package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, string(theme.Primary))
	assert.NotEmpty(t, string(theme.Foreground))
	assert.NotEmpty(t, string(theme.Muted))
	assert.NotEmpty(t, string(theme.Border))
}

func TestDefaultTheme_EveryGapTypeHasColour(t *testing.T) {
	theme := DefaultTheme()

	for _, gt := range domain.AllGapTypes() {
		assert.NotEmpty(t, string(theme.GapTypes[gt]), gt.String())
	}
}

func TestDefaultTheme_AccentsAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	accents := []lipgloss.Color{theme.Primary, theme.Secondary, theme.Success, theme.Warning, theme.Error}

	seen := make(map[string]bool)
	for _, c := range accents {
		s := string(c)
		assert.False(t, seen[s], "duplicate colour: %s", s)
		seen[s] = true
	}
}

func TestNewStyles_NilTheme(t *testing.T) {
	styles := NewStyles(nil)

	require.NotNil(t, styles)
	assert.NotNil(t, styles.Theme())
}

func TestStyles_GapType(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.GapType(domain.GapTypeFutureWork), "FutureWork")
	assert.Contains(t, s.GapType(domain.GapType("Other")), "Other")
}

func TestStyles_Score(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Score(0.9, "0.90"), "0.90")
	assert.Contains(t, s.Score(0.5, "0.50"), "0.50")
	assert.Contains(t, s.Score(0.1, "0.10"), "0.10")
}
