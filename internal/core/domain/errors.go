package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown backend, provider or export format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Extraction Errors.

	// ErrExtractionFailed indicates a PDF could not be turned into text.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEncryptedPDF indicates the PDF is password protected.
	ErrEncryptedPDF = errors.New("pdf is encrypted")

	// ErrNoTextLayer indicates the PDF has no extractable text (e.g. scanned images).
	ErrNoTextLayer = errors.New("pdf has no extractable text layer")

	// Backend Errors.

	// ErrAuthInvalid indicates the authentication credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransientBackend indicates a retryable backend failure
	// (network error, timeout, rate limit, server error).
	ErrTransientBackend = errors.New("transient backend failure")

	// ErrMalformedOutput indicates the model answered outside the expected schema.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrAcceleratorUnavailable indicates the local backend cannot run
	// because no hardware accelerator was detected.
	ErrAcceleratorUnavailable = errors.New("hardware accelerator unavailable")

	// ErrBackendUnavailable indicates the selected backend cannot be used.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrNoDocuments indicates an analysis was requested without input files.
	ErrNoDocuments = errors.New("no documents to analyse")
)

// ExtractionError reports a PDF that could not be extracted.
// It is scoped to a single file; the rest of a batch continues.
type ExtractionError struct {
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is matches ErrExtractionFailed in addition to the wrapped cause.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

// EmbeddingError reports a failure of the embedding encoder.
// The affected document falls back to keyword-only candidate generation.
type EmbeddingError struct {
	DocumentID string
	Err        error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.DocumentID, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Is matches ErrEmbeddingUnavailable in addition to the wrapped cause.
func (e *EmbeddingError) Is(target error) bool {
	return target == ErrEmbeddingUnavailable
}

// AuthError reports invalid or missing cloud credentials. It aborts the
// analysis and is never retried.
type AuthError struct {
	Backend string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: authentication failed", e.Backend)
	}
	return fmt.Sprintf("%s: authentication failed: %v", e.Backend, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches ErrAuthInvalid in addition to the wrapped cause.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuthInvalid
}

// TransientBackendError reports a backend call that kept failing after
// every retry was spent.
type TransientBackendError struct {
	Backend  string
	Attempts int
	Err      error
}

func (e *TransientBackendError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempt(s): %v", e.Backend, e.Attempts, e.Err)
}

func (e *TransientBackendError) Unwrap() error { return e.Err }

// Is matches ErrTransientBackend in addition to the wrapped cause.
func (e *TransientBackendError) Is(target error) bool {
	return target == ErrTransientBackend
}

// RetryableError marks a single backend failure as worth retrying.
// RetryAfter carries a server-provided delay when one was given.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// ParseError reports model output that does not fit the classification
// schema. Raw keeps the output for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches ErrMalformedOutput in addition to the wrapped cause.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedOutput
}

// AcceleratorUnavailableError reports that the local backend is not offered
// on this machine.
type AcceleratorUnavailableError struct {
	Reason string
}

func (e *AcceleratorUnavailableError) Error() string {
	if e.Reason == "" {
		return ErrAcceleratorUnavailable.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAcceleratorUnavailable, e.Reason)
}

// Is matches ErrAcceleratorUnavailable and ErrBackendUnavailable.
func (e *AcceleratorUnavailableError) Is(target error) bool {
	return target == ErrAcceleratorUnavailable || target == ErrBackendUnavailable
}
