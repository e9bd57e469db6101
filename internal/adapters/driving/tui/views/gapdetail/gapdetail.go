// Package gapdetail provides the single gap view component for the TUI.
package gapdetail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// reserved lines for the title and separator
const headerLines = 3

// View shows every field of one gap in a scrollable viewport.
type View struct {
	styles   *styles.Styles
	viewport viewport.Model
	gap      *domain.Gap
	width    int
	height   int
}

// NewView creates a new gap detail view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   20 + headerLines,
	}
}

// SetGap sets the gap to display and scrolls to the top.
func (v *View) SetGap(g *domain.Gap) {
	v.gap = g
	v.viewport.SetContent(v.buildContent())
	v.viewport.GotoTop()
}

// Gap returns the displayed gap.
func (v *View) Gap() *domain.Gap {
	return v.gap
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the gap detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewResults}
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the gap.
func (v *View) View() string {
	if v.gap == nil {
		return v.styles.Muted.Render("No gap selected")
	}

	title := v.gap.Title
	if title == "" {
		title = v.gap.DocumentName
	}
	header := v.styles.Title.Render(title) + "\n" +
		v.styles.Muted.Render(strings.Repeat("─", max(v.width, 1)))

	return header + "\n" + v.viewport.View()
}

func (v *View) buildContent() string {
	if v.gap == nil {
		return ""
	}
	g := v.gap
	wrap := lipgloss.NewStyle().Width(max(v.width-2, 20))

	var b strings.Builder
	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(v.styles.Label.Render(label) + " " + value + "\n")
	}
	block := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString("\n" + v.styles.Subtitle.Render(label) + "\n")
		b.WriteString(wrap.Render(value) + "\n")
	}

	field("Document", g.DocumentName)
	field("DOI", g.DOI)
	field("Page", fmt.Sprintf("%d", g.Page))
	field("Type", v.styles.GapType(g.Type))
	field("Score", v.styles.Score(g.InsightScore, fmt.Sprintf("%.2f", g.InsightScore)))
	field("Trigger", g.Trigger)
	field("Backend", g.Backend)

	block("Description", g.Description)
	block("Evidence", g.Evidence)
	block("Suggestion", g.Suggestion)

	return b.String()
}

// SetDimensions sets the view dimensions and re-wraps the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-headerLines, 1)
	v.viewport.SetContent(v.buildContent())
}
