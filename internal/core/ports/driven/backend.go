package driven

import (
	"context"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// GapBackend classifies gap candidates. Local and Cloud implementations
// share the prompt and response schema and differ in where the model runs,
// how availability is checked and how failures are retried.
type GapBackend interface {
	// Name identifies the backend and its model, e.g. "cloud/gemini-2.5-flash-lite".
	Name() string

	// Kind reports whether the backend is local or cloud.
	Kind() domain.BackendKind

	// Available reports whether the backend can serve this session.
	// Local backends return *domain.AcceleratorUnavailableError when no
	// accelerator is present; cloud backends return *domain.AuthError when
	// the credential is rejected.
	Available(ctx context.Context) error

	// ContextLimit is the maximum number of characters of context per call.
	ContextLimit() int

	// Classify asks the model whether the candidate describes a research gap.
	// Malformed output yields *domain.ParseError; retry exhaustion yields
	// *domain.TransientBackendError.
	Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Classification, error)

	// Close releases resources.
	Close() error
}

// BackendFactory builds gap backends for a session.
type BackendFactory interface {
	// NewBackend constructs the backend of the given kind. apiKey is only
	// used by cloud backends and never stored.
	NewBackend(kind domain.BackendKind, settings domain.Settings, apiKey string) (GapBackend, error)
}

// AcceleratorProbe detects hardware acceleration for local inference.
type AcceleratorProbe interface {
	// Detect returns a short accelerator name ("metal", "cuda", "rocm")
	// or an *domain.AcceleratorUnavailableError.
	Detect(ctx context.Context) (string, error)
}
