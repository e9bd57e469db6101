// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The analysis pipeline lives here: extraction, keyword screening,
// embedding indices, retrieval, scoring and the per-document
// orchestration that ties them to a gap backend.
package services
