// Package cli provides the gapfinder command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driving"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

// EnvAPIKey is read when --api-key is not given.
const EnvAPIKey = "GAPFINDER_API_KEY"

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

// PromptWatcher hot-reloads prompt templates while a long-running command is up.
type PromptWatcher interface {
	Watch(ctx context.Context, onReload func(name string)) error
}

// Services are the driving ports the commands use.
type Services struct {
	Analysis driving.AnalysisService
	Backends driving.BackendService
	Settings driving.SettingsService
	Export   driving.ExportService

	// Prompts is optional.
	Prompts PromptWatcher

	// Metrics is optional and served by `mcp serve --port`.
	Metrics http.Handler
}

// Bootstrap builds the services from the configuration directory.
type Bootstrap func(configDir string) (*Services, error)

var (
	version = "dev"

	configDir string
	verbose   bool

	analysisService driving.AnalysisService
	backendService  driving.BackendService
	settingsService driving.SettingsService
	exportService   driving.ExportService
	promptWatcher   PromptWatcher
	metricsHandler  http.Handler

	bootstrap Bootstrap
)

var rootCmd = &cobra.Command{
	Use:   "gapfinder",
	Short: "Find research gaps in academic papers",
	Long: `gapfinder reads academic PDF papers and finds research gaps: stated
limitations, future work and unexplored areas.

Candidate passages are found by keyword screening and semantic retrieval,
then classified by a local model (Ollama) or a cloud model. Results are
ranked by Insight Score and can be exported to CSV, Excel, JSON or SQLite.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.gapfinder)")
}

// SetVersion sets the version reported by `gapfinder version`.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that builds services on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs the services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	analysisService = s.Analysis
	backendService = s.Backends
	settingsService = s.Settings
	exportService = s.Export
	promptWatcher = s.Prompts
	metricsHandler = s.Metrics
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipBootstrap] == "true" || analysisService != nil || bootstrap == nil {
		return nil
	}

	s, err := bootstrap(configDir)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(s)
	return nil
}

var errNotConfigured = errors.New("service not configured")

func requireService(name string, present bool) error {
	if !present {
		return fmt.Errorf("%s %w", name, errNotConfigured)
	}
	return nil
}
