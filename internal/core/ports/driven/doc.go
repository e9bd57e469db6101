// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - PDFReader: Turns PDF bytes into per-page raw text
//   - Chunker: Splits documents into overlapping passages
//   - BackendFactory: Builds local and cloud GapBackends
//   - GapBackend: Classifies candidate passages (local or cloud)
//   - ConfigStore: Application configuration
//   - Exporter: Writes result sets to CSV, XLSX, JSON or SQLite
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, every document
//     is analysed in keyword-only mode.
//   - VectorIndexFactory: Creates per-document vector indices.
//   - AcceleratorProbe: Detects a GPU for the local backend.
//   - PromptStore: User-editable prompt templates.
//   - MetricsRecorder: Pipeline counters and latencies.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
