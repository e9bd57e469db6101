package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

func testGaps() []domain.Gap {
	return []domain.Gap{
		{DocumentName: "a.pdf", Page: 2, Type: domain.GapTypeLimitation, Description: "small sample", InsightScore: 0.91},
		{DocumentName: "a.pdf", Page: 5, Type: domain.GapTypeFutureWork, Description: "extend to other languages", InsightScore: 0.72},
		{DocumentName: "b.pdf", Page: 1, Type: domain.GapTypeLimitation, Description: "single site", InsightScore: 0.40},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewGapList(t *testing.T) {
	l := NewGapList(nil)

	require.NotNil(t, l)
	assert.Equal(t, 0, l.Count())
	assert.Nil(t, l.SelectedGap())
	assert.Contains(t, l.View(), "No research gaps found")
}

func TestGapList_Navigation(t *testing.T) {
	l := NewGapList(nil)
	l.SetGaps(testGaps())

	l, _ = l.Update(keyMsg("j"))
	assert.Equal(t, 1, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, l.Selected(), "selection stops at the last gap")

	l, _ = l.Update(keyMsg("k"))
	assert.Equal(t, 1, l.Selected())
	assert.Equal(t, "extend to other languages", l.SelectedGap().Description)

	l, _ = l.Update(keyMsg("G"))
	assert.Equal(t, 2, l.Selected())
	l, _ = l.Update(keyMsg("g"))
	assert.Equal(t, 0, l.Selected())
}

func TestGapList_View(t *testing.T) {
	l := NewGapList(nil)
	l.SetDimensions(120, 20)
	l.SetGaps(testGaps())

	view := l.View()

	assert.Contains(t, view, "Description")
	assert.Contains(t, view, "0.91")
	assert.Contains(t, view, "small sample")
	assert.Contains(t, view, "FutureWork")
}

func TestGapList_NextFilter(t *testing.T) {
	l := NewGapList(nil)
	l.SetGaps(testGaps())

	assert.Equal(t, domain.GapTypeLimitation, l.NextFilter())
	assert.Equal(t, 2, l.Count())

	assert.Equal(t, domain.GapTypeFutureWork, l.NextFilter())
	assert.Equal(t, 1, l.Count())

	assert.Equal(t, domain.GapType(""), l.NextFilter(), "types without gaps are skipped")
	assert.Equal(t, 3, l.Count())
}

func TestGapList_FilterWithNoMatches(t *testing.T) {
	l := NewGapList(nil)
	l.SetGaps(testGaps())
	l.SetFilter(domain.GapTypeTheoretical)

	assert.Equal(t, 0, l.Count())
	assert.Contains(t, l.View(), "No Theoretical gaps")
}

func TestGapList_Scrolls(t *testing.T) {
	l := NewGapList(nil)
	l.SetDimensions(100, 3) // one row visible
	l.SetGaps(testGaps())

	l.MoveDown()
	l.MoveDown()

	view := l.View()
	assert.Contains(t, view, "single site")
	assert.NotContains(t, view, "small sample")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "limit...", Truncate("limitations", 8))
	assert.Equal(t, "lacuna", Truncate("lacuna", 6))
	assert.Equal(t, "lim", Truncate("limitação", 3))
}
