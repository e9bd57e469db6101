// Package mcp provides an MCP (Model Context Protocol) server adapter for GapFinder.
// It lets AI assistants run gap analyses on local PDF files.
package mcp

import "errors"

var (
	// ErrMissingAnalysisService is returned when the analysis service is not provided.
	ErrMissingAnalysisService = errors.New("mcp: analysis service is required")

	// ErrNoResults is returned when results are requested before any analysis ran.
	ErrNoResults = errors.New("mcp: no analysis has been run yet")

	// ErrExportUnavailable is returned when no export service is configured.
	ErrExportUnavailable = errors.New("mcp: export is not configured")
)
