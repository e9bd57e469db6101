package tui

import "errors"

// ErrMissingReport is returned when no analysis report is provided.
var ErrMissingReport = errors.New("tui: analysis report is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")

// ErrExportUnavailable is returned when export is requested without an export service.
var ErrExportUnavailable = errors.New("tui: export is not configured")
