package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui/views/gapdetail"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// DefaultExportPath is offered when the user exports from the TUI.
const DefaultExportPath = "gaps.xlsx"

// App is the results viewer following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	report *domain.AnalysisReport

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	gapList    *list.GapList
	detailView *gapdetail.View
	pathInput  *input.PathInput
	statusBar  *status.Bar

	currentView messages.ViewType
	exporting   bool

	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a results viewer for the given report.
func NewApp(report *domain.AnalysisReport, ports *Ports) (*App, error) {
	if report == nil {
		return nil, ErrMissingReport
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	gapList := list.NewGapList(s)
	gapList.SetGaps(report.Gaps)

	pathInput := input.NewPathInput(s)
	pathInput.SetValue(DefaultExportPath)

	a := &App{
		ports:       ports,
		report:      report,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		gapList:     gapList,
		detailView:  gapdetail.NewView(s),
		pathInput:   pathInput,
		statusBar:   status.NewBar(s, km),
		currentView: messages.ViewResults,
	}
	a.refreshStatus()
	return a, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("gapfinder - Research Gaps")
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		a.refreshStatus()
		return a, nil

	case messages.ExportCompleted:
		a.exporting = false
		if msg.Err != nil {
			a.err = msg.Err
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.err = nil
		a.statusBar.SetState(status.StateInfo)
		a.statusBar.SetMessage(fmt.Sprintf("Exported %d gap(s) to %s", msg.Rows, msg.Path))
		return a, nil
	}

	if a.currentView == messages.ViewDetail {
		a.detailView, cmd = a.detailView.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	// The export prompt captures every key while focused.
	if a.pathInput.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			a.pathInput.Blur()
			return a, nil
		case tea.KeyEnter:
			a.pathInput.Blur()
			return a, a.startExport(strings.TrimSpace(a.pathInput.Value()))
		default:
			a.pathInput, cmd = a.pathInput.Update(msg)
			return a, cmd
		}
	}

	key := msg.String()
	if keymap.Matches(key, a.keymap.Quit) {
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewHelp:
		if keymap.Matches(key, a.keymap.Back) || keymap.Matches(key, a.keymap.Help) {
			a.currentView = messages.ViewResults
			a.refreshStatus()
		}
		return a, nil

	case messages.ViewDetail:
		a.detailView, cmd = a.detailView.Update(msg)
		return a, cmd

	case messages.ViewResults:
	}

	switch {
	case keymap.Matches(key, a.keymap.Help):
		a.currentView = messages.ViewHelp
		a.statusBar.SetState(status.StateHelp)
	case keymap.Matches(key, a.keymap.Select):
		if g := a.gapList.SelectedGap(); g != nil {
			a.detailView.SetGap(g)
			a.currentView = messages.ViewDetail
			a.refreshStatus()
		}
	case keymap.Matches(key, a.keymap.Filter):
		a.gapList.NextFilter()
		a.refreshStatus()
	case keymap.Matches(key, a.keymap.Export):
		if a.ports.Export == nil {
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(ErrExportUnavailable.Error())
			return a, nil
		}
		return a, a.pathInput.Focus()
	default:
		a.gapList, cmd = a.gapList.Update(msg)
	}
	return a, cmd
}

// startExport writes the currently visible gaps in the background.
func (a *App) startExport(path string) tea.Cmd {
	if path == "" || a.exporting {
		return nil
	}
	a.exporting = true
	a.statusBar.SetState(status.StateExporting)

	gaps := a.gapList.Gaps()
	ctx := a.ctx
	export := a.ports.Export
	return func() tea.Msg {
		err := export.ExportFile(ctx, path, gaps)
		return messages.ExportCompleted{Path: path, Rows: len(gaps), Err: err}
	}
}

func (a *App) refreshStatus() {
	switch a.currentView {
	case messages.ViewDetail:
		a.statusBar.SetState(status.StateDetail)
	case messages.ViewHelp:
		a.statusBar.SetState(status.StateHelp)
	case messages.ViewResults:
		a.statusBar.SetState(status.StateResults)
	}
	a.statusBar.SetMessage("")
	a.statusBar.SetSummary(a.report.Backend, a.gapList.Count(), a.gapList.Filter().String())
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewDetail:
		body = a.detailView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	case messages.ViewResults:
		body = a.viewResults()
	}

	footer := a.statusBar.View()
	if a.pathInput.Focused() {
		footer = a.pathInput.View() + "\n" + footer
	}

	gap := max(a.height-lipgloss.Height(body)-lipgloss.Height(footer), 0)
	return body + strings.Repeat("\n", gap) + "\n" + footer
}

func (a *App) viewResults() string {
	header := a.styles.Title.Render("Research Gaps") + "  " +
		a.styles.Muted.Render(fmt.Sprintf("%d document(s)", len(a.report.Documents)))

	var notes []string
	for _, f := range a.report.Failures {
		notes = append(notes, a.styles.Error.Render(fmt.Sprintf("%s: failed (%s)", f.Filename, f.Error)))
	}
	if n := len(a.report.Undetermined); n > 0 {
		notes = append(notes, a.styles.Warning.Render(fmt.Sprintf("%d candidate(s) could not be classified", n)))
	}
	if a.report.Cancelled {
		notes = append(notes, a.styles.Warning.Render("analysis was cancelled; results are partial"))
	}

	parts := []string{header, ""}
	if len(notes) > 0 {
		parts = append(parts, strings.Join(notes, "\n"), "")
	}
	parts = append(parts, a.gapList.View())
	return strings.Join(parts, "\n")
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help") + "\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back to results"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	// header and status bar
	a.gapList.SetDimensions(width, max(height-4, 3))
	a.detailView.SetDimensions(width, max(height-2, 3))
	a.pathInput.SetWidth(width)
	a.statusBar.SetWidth(width)
}
