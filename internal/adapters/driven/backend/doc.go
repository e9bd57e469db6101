// Package backend provides the gap classification backends.
//
// Both backends share one prompt and one response schema. The local backend
// runs a small instruct model through Ollama and is only offered when a
// hardware accelerator is present. The cloud backend calls a hosted model
// with a per-session API key and applies client-side rate limiting and
// retries.
package backend
