// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// GapList displays research gaps in a navigable table. It keeps the full
// set and shows the subset matching the current type filter.
type GapList struct {
	all      []domain.Gap
	visible  []domain.Gap
	filter   domain.GapType
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewGapList creates a new gap list component.
func NewGapList(s *styles.Styles) *GapList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &GapList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the gap list.
func (l *GapList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *GapList) Update(msg tea.Msg) (*GapList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "pgup", "b":
			l.move(-l.pageSize())
		case "pgdown", "f", " ":
			l.move(l.pageSize())
		case "home", "g":
			l.selected = 0
		case "end", "G":
			l.selected = max(len(l.visible)-1, 0)
		}
	}
	return l, nil
}

// View renders the gap table.
func (l *GapList) View() string {
	if len(l.visible) == 0 {
		if l.filter != "" {
			return l.styles.Muted.Render(fmt.Sprintf("No %s gaps", l.filter))
		}
		return l.styles.Muted.Render("No research gaps found")
	}

	descWidth := l.descWidth()
	lines := make([]string, 0, l.pageSize()+2)
	header := fmt.Sprintf("  %-5s  %-20s  %4s  %-14s  %s", "Score", "Document", "Page", "Type", "Description")
	lines = append(lines, l.styles.Subtitle.Render(header), "")

	start, end := l.window()
	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(i, &l.visible[i], descWidth))
	}

	return strings.Join(lines, "\n")
}

func (l *GapList) renderRow(index int, g *domain.Gap, descWidth int) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	score := fmt.Sprintf("%.2f", g.InsightScore)
	doc := Truncate(g.DocumentName, 20)
	desc := Truncate(strings.Join(strings.Fields(g.Description), " "), descWidth)

	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("%s%-5s  %-20s  %4d  %-14s  %s",
			indicator, score, doc, g.Page, g.Type, desc))
	}
	return indicator +
		l.styles.Score(g.InsightScore, fmt.Sprintf("%-5s", score)) + "  " +
		l.styles.Normal.Render(fmt.Sprintf("%-20s  %4d  ", doc, g.Page)) +
		l.styles.GapType(g.Type) + strings.Repeat(" ", max(14-len(g.Type), 0)) + "  " +
		l.styles.Normal.Render(desc)
}

// window returns the visible row range around the selection.
func (l *GapList) window() (int, int) {
	size := l.pageSize()
	start := 0
	if l.selected >= size {
		start = l.selected - size + 1
	}
	end := min(start+size, len(l.visible))
	return start, end
}

func (l *GapList) pageSize() int {
	return max(l.height-2, 1)
}

func (l *GapList) descWidth() int {
	// indicator, score, document, page, type and separators
	return max(l.width-2-5-2-20-2-4-2-14-2, 10)
}

// SetGaps replaces the gaps and clears the filter.
func (l *GapList) SetGaps(gaps []domain.Gap) {
	l.all = gaps
	l.filter = ""
	l.applyFilter()
}

// SetFilter shows only gaps of the given type. An empty type shows all.
func (l *GapList) SetFilter(t domain.GapType) {
	l.filter = t
	l.applyFilter()
}

// Filter returns the active type filter.
func (l *GapList) Filter() domain.GapType {
	return l.filter
}

// NextFilter advances the filter through every gap type present, then
// back to showing all.
func (l *GapList) NextFilter() domain.GapType {
	present := make(map[domain.GapType]bool)
	for _, g := range l.all {
		present[g.Type] = true
	}

	order := []domain.GapType{""}
	for _, t := range domain.AllGapTypes() {
		if present[t] {
			order = append(order, t)
		}
	}

	next := order[0]
	for i, t := range order {
		if t == l.filter {
			next = order[(i+1)%len(order)]
			break
		}
	}
	l.SetFilter(next)
	return next
}

func (l *GapList) applyFilter() {
	l.selected = 0
	if l.filter == "" {
		l.visible = l.all
		return
	}
	l.visible = nil
	for _, g := range l.all {
		if g.Type == l.filter {
			l.visible = append(l.visible, g)
		}
	}
}

// Gaps returns the gaps matching the current filter.
func (l *GapList) Gaps() []domain.Gap {
	return l.visible
}

// Selected returns the index of the selected gap.
func (l *GapList) Selected() int {
	return l.selected
}

// SelectedGap returns the currently selected gap, or nil if none.
func (l *GapList) SelectedGap() *domain.Gap {
	if len(l.visible) == 0 || l.selected < 0 || l.selected >= len(l.visible) {
		return nil
	}
	return &l.visible[l.selected]
}

// MoveUp moves selection up.
func (l *GapList) MoveUp() {
	l.move(-1)
}

// MoveDown moves selection down.
func (l *GapList) MoveDown() {
	l.move(1)
}

func (l *GapList) move(delta int) {
	if len(l.visible) == 0 {
		return
	}
	l.selected = min(max(l.selected+delta, 0), len(l.visible)-1)
}

// SetDimensions sets the component dimensions.
func (l *GapList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of visible gaps.
func (l *GapList) Count() int {
	return len(l.visible)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
