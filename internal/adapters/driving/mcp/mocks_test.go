package mcp

import (
	"context"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driving"
)

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	report *domain.AnalysisReport
	err    error
	got    domain.AnalysisRequest
}

func (m *mockAnalysisService) Analyze(_ context.Context, req domain.AnalysisRequest) (*domain.AnalysisReport, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

// mockBackendService is a mock implementation of driving.BackendService.
type mockBackendService struct {
	statuses []driving.BackendStatus
	apiKey   string
}

func (m *mockBackendService) Status(_ context.Context, apiKey string) []driving.BackendStatus {
	m.apiKey = apiKey
	return m.statuses
}

// mockExportService is a mock implementation of driving.ExportService.
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

func (m *mockExportService) Formats() []string {
	return []string{".csv", ".json"}
}

func sampleReport() *domain.AnalysisReport {
	return &domain.AnalysisReport{
		SessionID: "session-1",
		Mode:      domain.BackendLocal,
		Backend:   "local/llama3",
		Documents: []domain.DocumentResult{{Filename: "paper.pdf", GapCount: 2}},
		Gaps: []domain.Gap{
			{DocumentName: "paper.pdf", Page: 3, Type: domain.GapTypeMethodological, Description: "small sample", InsightScore: 0.9},
			{DocumentName: "paper.pdf", Page: 7, Type: domain.GapTypeFutureWork, Description: "extend to other domains", InsightScore: 0.6},
		},
		Warnings: []domain.Warning{{Filename: "paper.pdf", Message: "embedding failed; keyword screening only"}},
	}
}
