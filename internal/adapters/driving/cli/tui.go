package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// runTUI is replaced in tests.
var runTUI = func(app *tui.App) error {
	return app.Run()
}

// runResultsTUI opens the interactive results viewer.
func runResultsTUI(cmd *cobra.Command, report *domain.AnalysisReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := tui.NewApp(report, &tui.Ports{Export: exportService})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := runTUI(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
