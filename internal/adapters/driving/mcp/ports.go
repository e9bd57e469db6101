package mcp

import (
	"net/http"

	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Analysis runs gap analyses.
	Analysis driving.AnalysisService

	// Backends reports backend availability.
	Backends driving.BackendService

	// Export writes results to files.
	Export driving.ExportService

	// Metrics is served at /metrics in HTTP mode.
	Metrics http.Handler

	// APIKey is the cloud credential for every analysis run by this server.
	// It is never accepted as tool input.
	APIKey string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Analysis == nil {
		return ErrMissingAnalysisService
	}
	return nil
}
