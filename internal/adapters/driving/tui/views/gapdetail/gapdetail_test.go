package gapdetail

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

func testGap() *domain.Gap {
	return &domain.Gap{
		DocumentName: "paper.pdf",
		Title:        "Deep Learning for Soil Moisture",
		DOI:          "10.1234/abcd",
		Page:         4,
		Type:         domain.GapTypeLimitation,
		Description:  "The model was validated on a single region.",
		Evidence:     "A limitation of this study is that we only used data from one basin.",
		Suggestion:   "Validate across climatic zones.",
		InsightScore: 0.83,
		Trigger:      "both",
		Backend:      "local/llama3",
	}
}

func TestNewView(t *testing.T) {
	v := NewView(nil)

	require.NotNil(t, v)
	assert.Nil(t, v.Gap())
	assert.Contains(t, v.View(), "No gap selected")
}

func TestView_RendersFields(t *testing.T) {
	v := NewView(nil)
	v.SetDimensions(100, 40)
	v.SetGap(testGap())

	view := v.View()

	assert.Contains(t, view, "Deep Learning for Soil Moisture")
	assert.Contains(t, view, "10.1234/abcd")
	assert.Contains(t, view, "Limitation")
	assert.Contains(t, view, "0.83")
	assert.Contains(t, view, "single region")
	assert.Contains(t, view, "Validate across climatic zones.")
}

func TestView_UntitledFallsBackToDocument(t *testing.T) {
	g := testGap()
	g.Title = ""
	v := NewView(nil)
	v.SetGap(g)

	assert.True(t, strings.HasPrefix(v.View(), "paper.pdf"))
}

func TestView_EscReturnsToResults(t *testing.T) {
	v := NewView(nil)
	v.SetGap(testGap())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewResults}, cmd())
}

func TestView_Scrolls(t *testing.T) {
	g := testGap()
	g.Evidence = strings.Repeat("evidence line ", 200)
	v := NewView(nil)
	v.SetDimensions(40, 8)
	v.SetGap(g)

	before := v.View()
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})

	assert.NotEqual(t, before, v.View())
}
