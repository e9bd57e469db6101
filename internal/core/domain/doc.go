// Package domain defines the core business entities for GapFinder.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Extracted, page-ordered text of one PDF with metadata
//   - Chunk: A passage of a document used for retrieval and classification
//   - GapCandidate: A chunk flagged by keywords or retrieval for review
//   - Gap: A confirmed research gap with its Insight Score
//   - AnalysisReport: The outcome of one analysis session
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
