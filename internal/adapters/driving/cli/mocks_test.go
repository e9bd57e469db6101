package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driving"
)

type mockAnalysisService struct {
	report *domain.AnalysisReport
	err    error
	got    domain.AnalysisRequest
	calls  int
}

func (m *mockAnalysisService) Analyze(_ context.Context, req domain.AnalysisRequest) (*domain.AnalysisReport, error) {
	m.calls++
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

type mockBackendService struct {
	statuses []driving.BackendStatus
	apiKey   string
}

func (m *mockBackendService) Status(_ context.Context, apiKey string) []driving.BackendStatus {
	m.apiKey = apiKey
	return m.statuses
}

type mockExportService struct {
	path string
	gaps []domain.Gap
	err  error
}

func (m *mockExportService) ExportFile(_ context.Context, path string, gaps []domain.Gap) error {
	m.path = path
	m.gaps = gaps
	return m.err
}

func (m *mockExportService) Formats() []string { return []string{".csv", ".json", ".xlsx", ".db"} }

type mockSettingsService struct {
	settings domain.Settings
	values   map[string]string
	setKey   string
	setValue string
	mode     domain.BackendKind
	err      error
	invalid  error
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	m.setKey, m.setValue = key, value
	return m.err
}

func (m *mockSettingsService) Values() map[string]string { return m.values }

func (m *mockSettingsService) SetMode(mode domain.BackendKind) error {
	m.mode = mode
	return m.err
}

func (m *mockSettingsService) Validate() error { return m.invalid }

func (m *mockSettingsService) GetDefaults() domain.Settings { return domain.DefaultSettings() }

func (m *mockSettingsService) ConfigPath() string { return "/home/test/.gapfinder/config.toml" }

type testServices struct {
	analysis *mockAnalysisService
	backends *mockBackendService
	settings *mockSettingsService
	export   *mockExportService
}

func sampleReport() *domain.AnalysisReport {
	return &domain.AnalysisReport{
		SessionID: "s-1",
		Mode:      domain.BackendLocal,
		Backend:   "local/llama3",
		Documents: []domain.DocumentResult{{Filename: "paper.pdf", GapCount: 2}},
		Gaps: []domain.Gap{
			{DocumentName: "paper.pdf", Page: 3, Type: domain.GapTypeLimitation, Description: "Only one hospital was sampled.", InsightScore: 0.87},
			{DocumentName: "paper.pdf", Page: 9, Type: domain.GapTypeFutureWork, Description: "Extend to longitudinal data.", InsightScore: 0.64},
		},
	}
}

// setupTestServices installs mocks and returns a cleanup function that
// restores the previous services and resets command flags.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		analysis: &mockAnalysisService{report: sampleReport()},
		backends: &mockBackendService{},
		settings: &mockSettingsService{settings: domain.DefaultSettings(), values: map[string]string{}},
		export:   &mockExportService{},
	}
	SetServices(&Services{
		Analysis: ts.analysis,
		Backends: ts.backends,
		Settings: ts.settings,
		Export:   ts.export,
	})

	origTerminal := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }

	return ts, func() {
		SetServices(nil)
		stdinIsTerminal = origTerminal
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
	}
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	return path
}
