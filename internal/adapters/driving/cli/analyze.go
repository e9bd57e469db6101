package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

const fallbackNone = "none"

var (
	analyzeMode     string
	analyzeFallback string
	analyzeAPIKey   string
	analyzeJSON     bool
	analyzeTUI      bool
	analyzeExport   string
	analyzeLimit    int
)

// errNothingAnalysed is returned when every input failed.
var errNothingAnalysed = errors.New("no document could be analysed")

var analyzeCmd = &cobra.Command{
	Use:   "analyze <paper.pdf>...",
	Short: "Find research gaps in PDF papers",
	Long: `Analyse one or more academic PDF papers and list their research gaps.

Each file is processed independently: a file that cannot be read or parsed
is reported as failed and the others continue. Gaps are ranked by Insight
Score, a value between 0 and 1 combining how strongly the passage was
flagged and how confident the model was.

The backend is chosen once per run. With --fallback, an unavailable primary
backend is replaced by the fallback and a warning is printed. An invalid
cloud API key always stops the run.

The cloud API key is read from --api-key, then GAPFINDER_API_KEY, then a
hidden prompt. It is never saved.

Examples:
  gapfinder analyze paper.pdf
  gapfinder analyze --mode cloud --fallback local *.pdf
  gapfinder analyze --export gaps.xlsx papers/*.pdf
  gapfinder analyze --json paper.pdf | jq '.gaps[0]'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeMode, "mode", "m", "", "backend: local or cloud (default from config)")
	f.StringVar(&analyzeFallback, "fallback", "", "backend used when the primary is unavailable: local, cloud or none")
	f.StringVar(&analyzeAPIKey, "api-key", "", "cloud API key (or set "+EnvAPIKey+")")
	f.BoolVar(&analyzeJSON, "json", false, "print the full report as JSON")
	f.BoolVar(&analyzeTUI, "tui", false, "browse the results in the interactive viewer")
	f.StringVarP(&analyzeExport, "export", "o", "", "export gaps to FILE; the extension picks the format")
	f.IntVarP(&analyzeLimit, "limit", "n", 0, "show at most N gaps in the table (0 = all)")
	analyzeCmd.MarkFlagsMutuallyExclusive("json", "tui")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := requireService("analysis", analysisService != nil); err != nil {
		return err
	}

	mode, fallback, err := parseBackendFlags(analyzeMode, analyzeFallback)
	if err != nil {
		return err
	}
	if analyzeExport != "" && exportService == nil {
		return requireService("export", false)
	}

	effectiveMode, effectiveFallback := mode, fallback
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			if effectiveMode == "" {
				effectiveMode = s.Mode
			}
			if effectiveFallback == "" {
				effectiveFallback = s.Fallback
			}
		}
	}
	apiKey, err := resolveAPIKey(cmd, analyzeAPIKey, effectiveMode, effectiveFallback, true)
	if err != nil {
		return err
	}

	files, unreadable := readInputs(args)
	if len(files) == 0 {
		printFileStatus(cmd.OutOrStdout(), &domain.AnalysisReport{Failures: unreadable})
		return fmt.Errorf("%w: none of the %d file(s) could be read", domain.ErrNoDocuments, len(args))
	}

	report, err := analysisService.Analyze(cmd.Context(), domain.AnalysisRequest{
		Files:    files,
		Mode:     mode,
		Fallback: fallback,
		APIKey:   apiKey,
	})
	if err != nil {
		return err
	}
	report.Failures = append(unreadable, report.Failures...)

	switch {
	case analyzeJSON:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	case analyzeTUI:
		if err := runResultsTUI(cmd, report); err != nil {
			return err
		}
	default:
		printReport(cmd.OutOrStdout(), report, analyzeLimit)
	}

	if analyzeExport != "" {
		if err := exportService.ExportFile(cmd.Context(), analyzeExport, report.Gaps); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if !analyzeJSON {
			cmd.Printf("Exported %d gap(s) to %s\n", len(report.Gaps), analyzeExport)
		}
	}

	if len(report.Documents) == 0 && len(report.Failures) > 0 {
		return errNothingAnalysed
	}
	return nil
}

// parseBackendFlags validates --mode and --fallback. Empty values defer to
// the configuration; a "none" fallback disables fallback for this run.
func parseBackendFlags(mode, fallback string) (domain.BackendKind, domain.BackendKind, error) {
	m := domain.BackendKind(strings.ToLower(strings.TrimSpace(mode)))
	if m != "" && !m.IsValid() {
		return "", "", fmt.Errorf("%w: --mode must be local or cloud, got %q", domain.ErrInvalidInput, mode)
	}

	f := domain.BackendKind(strings.ToLower(strings.TrimSpace(fallback)))
	if f != "" && f != fallbackNone && !f.IsValid() {
		return "", "", fmt.Errorf("%w: --fallback must be local, cloud or none, got %q", domain.ErrInvalidInput, fallback)
	}
	return m, f, nil
}

// readInputs loads every file. Unreadable files become failures so that
// the rest of the batch still runs.
func readInputs(paths []string) ([]domain.InputFile, []domain.FileFailure) {
	var files []domain.InputFile
	var failures []domain.FileFailure
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, domain.FileFailure{
				Filename: filepath.Base(path),
				Error:    err.Error(),
				Err:      err,
			})
			continue
		}
		files = append(files, domain.InputFile{Name: filepath.Base(path), Data: data})
	}
	return files, failures
}
