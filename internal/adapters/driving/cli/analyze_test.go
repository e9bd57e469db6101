package cli

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

func TestAnalyzeCmd_Use(t *testing.T) {
	assert.Equal(t, "analyze <paper.pdf>...", analyzeCmd.Use)
	assert.Contains(t, analyzeCmd.Long, "GAPFINDER_API_KEY")
}

func TestAnalyzeCmd_Flags(t *testing.T) {
	for _, name := range []string{"mode", "fallback", "api-key", "json", "tui", "export", "limit"} {
		assert.NotNil(t, analyzeCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "m", analyzeCmd.Flags().Lookup("mode").Shorthand)
	assert.Equal(t, "o", analyzeCmd.Flags().Lookup("export").Shorthand)
}

func TestAnalyzeCmd_RequiresFiles(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "analyze")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestAnalyzeCmd_PrintsStatusAndTable(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "analyze", writeFile(t, "paper.pdf"))

	require.NoError(t, err)
	assert.Contains(t, out, "paper.pdf: 2 gap(s) found")
	assert.Contains(t, out, "Backend: local/llama3")
	assert.Contains(t, out, "DESCRIPTION")
	assert.Contains(t, out, "0.87")
	assert.Contains(t, out, "Only one hospital was sampled.")

	require.Len(t, ts.analysis.got.Files, 1)
	assert.Equal(t, "paper.pdf", ts.analysis.got.Files[0].Name)
	assert.Equal(t, []byte("%PDF-1.4"), ts.analysis.got.Files[0].Data)
}

func TestAnalyzeCmd_PassesModeAndFallback(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "analyze", "--mode", "Cloud", "--fallback", "none", "--api-key", "k-123", writeFile(t, "a.pdf"))

	require.NoError(t, err)
	assert.Equal(t, domain.BackendCloud, ts.analysis.got.Mode)
	assert.Equal(t, domain.BackendKind("none"), ts.analysis.got.Fallback)
	assert.Equal(t, "k-123", ts.analysis.got.APIKey)
}

func TestAnalyzeCmd_APIKeyFromEnv(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	t.Setenv(EnvAPIKey, "env-key")

	_, err := execute(t, "analyze", "--mode", "cloud", writeFile(t, "a.pdf"))

	require.NoError(t, err)
	assert.Equal(t, "env-key", ts.analysis.got.APIKey)
}

func TestAnalyzeCmd_InvalidMode(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "analyze", "--mode", "gpu", writeFile(t, "a.pdf"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, ts.analysis.calls)
}

func TestAnalyzeCmd_UnreadableFileIsReported(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	missing := filepath.Join(t.TempDir(), "missing.pdf")
	out, err := execute(t, "analyze", writeFile(t, "paper.pdf"), missing)

	require.NoError(t, err)
	assert.Contains(t, out, "paper.pdf: 2 gap(s) found")
	assert.Contains(t, out, "missing.pdf: failed")
	assert.Len(t, ts.analysis.got.Files, 1)
}

func TestAnalyzeCmd_NoReadableFiles(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "analyze", filepath.Join(t.TempDir(), "missing.pdf"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
	assert.Contains(t, out, "missing.pdf: failed")
	assert.Equal(t, 0, ts.analysis.calls)
}

func TestAnalyzeCmd_AllDocumentsFailed(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.analysis.report = &domain.AnalysisReport{
		Backend:  "local/llama3",
		Failures: []domain.FileFailure{{Filename: "scan.pdf", Error: "no text layer"}},
	}

	out, err := execute(t, "analyze", writeFile(t, "scan.pdf"))

	assert.ErrorIs(t, err, errNothingAnalysed)
	assert.Contains(t, out, "scan.pdf: failed (no text layer)")
}

func TestAnalyzeCmd_AuthErrorAborts(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.analysis.err = &domain.AuthError{Backend: "cloud/gemini", Err: errors.New("API key not valid")}

	_, err := execute(t, "analyze", "--mode", "cloud", "--api-key", "bad", writeFile(t, "a.pdf"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestAnalyzeCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "analyze", "--json", writeFile(t, "paper.pdf"))

	require.NoError(t, err)
	var report domain.AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "s-1", report.SessionID)
	assert.Len(t, report.Gaps, 2)
}

func TestAnalyzeCmd_Export(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "analyze", "--export", "gaps.xlsx", writeFile(t, "paper.pdf"))

	require.NoError(t, err)
	assert.Equal(t, "gaps.xlsx", ts.export.path)
	assert.Len(t, ts.export.gaps, 2)
	assert.Contains(t, out, "Exported 2 gap(s) to gaps.xlsx")
}

func TestAnalyzeCmd_ExportFailure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.export.err = domain.ErrUnsupportedType

	_, err := execute(t, "analyze", "--export", "gaps.pdf", writeFile(t, "paper.pdf"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestAnalyzeCmd_TUI(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	var ran *tui.App
	orig := runTUI
	runTUI = func(app *tui.App) error {
		ran = app
		return nil
	}
	defer func() { runTUI = orig }()

	_, err := execute(t, "analyze", "--tui", writeFile(t, "paper.pdf"))

	require.NoError(t, err)
	assert.NotNil(t, ran)
}

func TestAnalyzeCmd_JSONAndTUIExclusive(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "analyze", "--tui", "--json", writeFile(t, "paper.pdf"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestAnalyzeCmd_Limit(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "analyze", "--limit", "1", writeFile(t, "paper.pdf"))

	require.NoError(t, err)
	assert.Contains(t, out, "1 more gap(s)")
	assert.NotContains(t, out, "longitudinal")
}

func TestParseBackendFlags(t *testing.T) {
	tests := []struct {
		mode, fallback string
		wantMode       domain.BackendKind
		wantFallback   domain.BackendKind
		wantErr        bool
	}{
		{"", "", "", "", false},
		{"local", "cloud", domain.BackendLocal, domain.BackendCloud, false},
		{" LOCAL ", "None", domain.BackendLocal, "none", false},
		{"remote", "", "", "", true},
		{"cloud", "gpu", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.fallback, func(t *testing.T) {
			m, f, err := parseBackendFlags(tt.mode, tt.fallback)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, m)
			assert.Equal(t, tt.wantFallback, f)
		})
	}
}
