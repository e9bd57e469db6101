package driven

import "time"

// MetricsRecorder receives pipeline measurements.
type MetricsRecorder interface {
	// DocumentProcessed counts a document by outcome (ok, failed, keyword_only).
	DocumentProcessed(outcome string)

	// ClassifyCall records one backend call by backend name and outcome
	// (gap, no_gap, parse_error, undetermined, error).
	ClassifyCall(backend, outcome string, elapsed time.Duration)

	// GapsFound counts confirmed gaps by type.
	GapsFound(gapType string, n int)
}
