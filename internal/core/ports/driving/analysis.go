package driving

import (
	"context"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// AnalysisService runs gap analysis sessions.
type AnalysisService interface {
	// Analyze processes every file of the request and returns the aggregated
	// report. Per-file and per-candidate failures are reported inside the
	// report; only session-level failures (invalid credentials, no usable
	// backend) are returned as errors.
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisReport, error)
}

// BackendStatus describes whether a backend can be used on this machine.
type BackendStatus struct {
	Kind        domain.BackendKind
	Name        string
	Available   bool
	Reason      string
	Description string
}

// BackendService reports backend availability for the UI.
type BackendService interface {
	// Status checks each backend kind. apiKey is used only for the cloud check.
	Status(ctx context.Context, apiKey string) []BackendStatus
}

// ExportService writes analysis results to files.
type ExportService interface {
	// ExportFile writes gaps to path, choosing the format by extension.
	ExportFile(ctx context.Context, path string, gaps []domain.Gap) error

	// Formats lists supported extensions.
	Formats() []string
}
