package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for GapFinder resources.
	uriScheme = "gapfinder://"

	latestResultsURI = uriScheme + "results/latest"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         latestResultsURI,
		Name:        "latest-results",
		Description: "Full report of the most recent analysis run by this server",
		MIMEType:    "application/json",
	}, s.handleLatestResource)
}

// handleLatestResource returns the latest analysis report as JSON.
func (s *Server) handleLatestResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	text := "null"
	if report := s.getLatest(); report != nil {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding report: %w", err)
		}
		text = string(data)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		}},
	}, nil
}
