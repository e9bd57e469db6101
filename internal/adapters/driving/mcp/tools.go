package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// AnalyzeInput is the input schema for the analyze_pdf tool.
type AnalyzeInput struct {
	Paths    []string `json:"paths" jsonschema:"absolute paths of the PDF files to analyse"`
	Mode     string   `json:"mode,omitempty" jsonschema:"backend to use: local or cloud (default from config)"`
	Fallback string   `json:"fallback,omitempty" jsonschema:"backend to use when the primary is unavailable: local, cloud or none"`
	MaxGaps  int      `json:"max_gaps,omitempty" jsonschema:"maximum number of gaps to return (default 50)"`
}

// AnalyzeOutput is the output schema for the analyze_pdf tool.
type AnalyzeOutput struct {
	SessionID    string       `json:"session_id"`
	Backend      string       `json:"backend"`
	Gaps         []GapOutput  `json:"gaps"`
	TotalGaps    int          `json:"total_gaps"`
	Files        []FileOutput `json:"files"`
	Undetermined int          `json:"undetermined"`
	Warnings     []string     `json:"warnings,omitempty"`
	Cancelled    bool         `json:"cancelled,omitempty"`
}

// GapOutput is a single research gap.
type GapOutput struct {
	Document     string  `json:"document"`
	Title        string  `json:"title,omitempty"`
	Page         int     `json:"page"`
	Type         string  `json:"gap_type"`
	Description  string  `json:"description"`
	Evidence     string  `json:"evidence_text"`
	Suggestion   string  `json:"suggestion"`
	InsightScore float64 `json:"insight_score"`
}

// FileOutput is the per-file status line.
type FileOutput struct {
	File   string `json:"file"`
	Status string `json:"status"`
	Gaps   int    `json:"gaps"`
	Error  string `json:"error,omitempty"`
}

// BackendStatusOutput is the output schema for the backend_status tool.
type BackendStatusOutput struct {
	Backends []BackendOutput `json:"backends"`
}

// BackendOutput describes one backend.
type BackendOutput struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// ExportInput is the input schema for the export_results tool.
type ExportInput struct {
	Path string `json:"path" jsonschema:"destination file; the extension selects the format (.csv .xlsx .json .db)"`
}

// ExportOutput is the output schema for the export_results tool.
type ExportOutput struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

const defaultMaxGaps = 50

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_pdf",
		Description: "Find research gaps (limitations, future work, unexplored areas) in academic PDF papers",
	}, s.handleAnalyze)

	if s.ports.Backends != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "backend_status",
			Description: "Report whether the local and cloud classification backends are available",
		}, s.handleBackendStatus)
	}

	if s.ports.Export != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "export_results",
			Description: "Export the gaps of the latest analysis to a CSV, XLSX, JSON or SQLite file",
		}, s.handleExport)
	}
}

// handleAnalyze handles the analyze_pdf tool invocation.
func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	if len(input.Paths) == 0 {
		return nil, AnalyzeOutput{}, domain.ErrNoDocuments
	}

	req := domain.AnalysisRequest{
		Mode:     domain.BackendKind(input.Mode),
		Fallback: domain.BackendKind(input.Fallback),
		APIKey:   s.ports.APIKey,
	}

	var unreadable []domain.FileFailure
	for _, path := range input.Paths {
		data, err := os.ReadFile(path)
		if err != nil {
			unreadable = append(unreadable, domain.FileFailure{
				Filename: filepath.Base(path), Error: err.Error(), Err: err,
			})
			continue
		}
		req.Files = append(req.Files, domain.InputFile{Name: filepath.Base(path), Data: data})
	}
	if len(req.Files) == 0 {
		return nil, AnalyzeOutput{}, fmt.Errorf("%w: no readable files (%s)", domain.ErrNoDocuments, unreadable[0].Error)
	}

	report, err := s.ports.Analysis.Analyze(ctx, req)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}
	report.Failures = append(unreadable, report.Failures...)
	s.setLatest(report)

	maxGaps := input.MaxGaps
	if maxGaps <= 0 {
		maxGaps = defaultMaxGaps
	}
	return nil, toAnalyzeOutput(report, maxGaps), nil
}

func toAnalyzeOutput(report *domain.AnalysisReport, maxGaps int) AnalyzeOutput {
	out := AnalyzeOutput{
		SessionID:    report.SessionID,
		Backend:      report.Backend,
		Gaps:         make([]GapOutput, 0, min(maxGaps, len(report.Gaps))),
		TotalGaps:    len(report.Gaps),
		Undetermined: len(report.Undetermined),
		Cancelled:    report.Cancelled,
	}

	for i, g := range report.Gaps {
		if i >= maxGaps {
			break
		}
		out.Gaps = append(out.Gaps, GapOutput{
			Document:     g.DocumentName,
			Title:        g.Title,
			Page:         g.Page,
			Type:         g.Type.String(),
			Description:  g.Description,
			Evidence:     g.Evidence,
			Suggestion:   g.Suggestion,
			InsightScore: g.InsightScore,
		})
	}

	for _, d := range report.Documents {
		out.Files = append(out.Files, FileOutput{File: d.Filename, Status: "ok", Gaps: d.GapCount})
	}
	for _, f := range report.Failures {
		out.Files = append(out.Files, FileOutput{File: f.Filename, Status: "failed", Error: f.Error})
	}

	for _, w := range report.Warnings {
		msg := w.Message
		if w.Filename != "" {
			msg = w.Filename + ": " + msg
		}
		out.Warnings = append(out.Warnings, msg)
	}
	return out
}

// handleBackendStatus handles the backend_status tool invocation.
func (s *Server) handleBackendStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, BackendStatusOutput, error) {
	statuses := s.ports.Backends.Status(ctx, s.ports.APIKey)

	out := BackendStatusOutput{Backends: make([]BackendOutput, len(statuses))}
	for i, st := range statuses {
		out.Backends[i] = BackendOutput{
			Kind:      st.Kind.String(),
			Name:      st.Name,
			Available: st.Available,
			Reason:    st.Reason,
		}
	}
	return nil, out, nil
}

// handleExport handles the export_results tool invocation.
func (s *Server) handleExport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExportInput,
) (*mcp.CallToolResult, ExportOutput, error) {
	report := s.getLatest()
	if report == nil {
		return nil, ExportOutput{}, ErrNoResults
	}
	if err := s.ports.Export.ExportFile(ctx, input.Path, report.Gaps); err != nil {
		return nil, ExportOutput{}, err
	}
	return nil, ExportOutput{Path: input.Path, Rows: len(report.Gaps)}, nil
}
