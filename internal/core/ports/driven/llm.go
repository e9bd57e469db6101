package driven

import "context"

// LLMService provides raw text generation against one provider.
// Gap-specific prompting and parsing live in GapBackend implementations.
type LLMService interface {
	// Generate produces text completion for a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model.
	ModelName() string

	// Ping validates that the LLM service is reachable and the credentials
	// are accepted. Invalid credentials are reported wrapping
	// domain.ErrAuthInvalid.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation.
type GenerateOptions struct {
	// System is an optional system instruction.
	System string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// JSON asks the provider to constrain output to JSON when supported.
	JSON bool

	// StopWords are sequences that stop generation.
	StopWords []string
}
