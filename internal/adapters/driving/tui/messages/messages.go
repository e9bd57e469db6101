// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewResults is the gap table.
	ViewResults ViewType = iota
	// ViewDetail shows a single gap.
	ViewDetail
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns a human-readable name for the view.
func (v ViewType) String() string {
	switch v {
	case ViewResults:
		return "results"
	case ViewDetail:
		return "detail"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// GapSelected is sent when a gap is opened from the table.
type GapSelected struct {
	Index int
}

// FilterChanged is sent when the gap type filter changes. An empty Type
// shows every gap.
type FilterChanged struct {
	Type string
}

// ExportCompleted carries the outcome of an export back to the model.
type ExportCompleted struct {
	Path string
	Rows int
	Err  error
}
