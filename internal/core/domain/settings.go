package domain

import (
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// BackendKind selects where gap classification runs.
type BackendKind string

// Available backend kinds.
const (
	// BackendLocal runs a quantised model on this machine.
	BackendLocal BackendKind = "local"

	// BackendCloud calls a hosted model with a caller-supplied API key.
	BackendCloud BackendKind = "cloud"
)

// IsValid returns true if the backend kind is recognised.
func (k BackendKind) IsValid() bool {
	return k == BackendLocal || k == BackendCloud
}

// String returns the string representation.
func (k BackendKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the backend kind.
func (k BackendKind) Description() string {
	switch k {
	case BackendLocal:
		return "Local (on-device model, requires a GPU accelerator)"
	case BackendCloud:
		return "Cloud (hosted model, bring your own API key)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// ChunkingSettings controls how documents are split into passages.
type ChunkingSettings struct {
	// Size is the target chunk length in bytes.
	Size int
	// Overlap is the number of bytes shared by consecutive chunks.
	Overlap int
	// Tolerance is how far from the target end a boundary may be searched.
	Tolerance int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI). Never persisted.
	APIKey string

	// BatchSize is the number of chunks embedded per request.
	BatchSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if e.Provider != AIProviderOllama && e.Provider != AIProviderOpenAI {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LocalSettings configures the on-device backend.
type LocalSettings struct {
	Model   string
	BaseURL string

	// ContextChars is the maximum size of the context window sent per call.
	ContextChars int

	// RequireAccelerator refuses to run without a detected GPU.
	RequireAccelerator bool
}

// CloudSettings configures the hosted backend.
type CloudSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string

	// APIKey is supplied per session and never written to disk.
	APIKey string

	ContextChars int

	// MaxInFlight bounds concurrent requests to the provider.
	MaxInFlight int

	// RequestsPerSecond is the client-side request rate limit.
	RequestsPerSecond float64

	// MaxAttempts is the total number of tries for a transient failure.
	MaxAttempts int
}

// IsConfigured returns true if the cloud backend has what it needs to run.
func (c CloudSettings) IsConfigured() bool {
	if !c.Provider.IsValid() || c.Provider.IsLocal() {
		return false
	}
	return c.APIKey != ""
}

// AnalysisSettings tunes candidate generation and the classification loop.
type AnalysisSettings struct {
	// TopK is the number of chunks retrieved per probe query.
	TopK int

	// MaxCandidates caps the candidates classified per document.
	MaxCandidates int

	// MinSimilarity filters weak retrieval hits.
	MinSimilarity float64

	// ContextNeighbors is the number of extra chunks added to a candidate's context.
	ContextNeighbors int

	// MaxProbeQueries caps keyword-derived ad hoc queries per document.
	MaxProbeQueries int

	// Workers is the number of documents analysed in parallel.
	Workers int

	// CallTimeout bounds a single classification call.
	CallTimeout time.Duration
}

// ScoringSettings holds the Insight Score weighting.
type ScoringSettings struct {
	TriggerWeight     float64
	BackendWeight     float64
	DefaultConfidence float64

	// DedupeThreshold is the evidence similarity above which two gaps
	// of the same document are considered duplicates.
	DedupeThreshold float64
}

// Settings holds all application settings.
type Settings struct {
	// Mode is the primary backend.
	Mode BackendKind

	// Fallback is consulted once at session start when Mode is unavailable.
	// Empty disables fallback.
	Fallback BackendKind

	Chunking  ChunkingSettings
	Embedding EmbeddingSettings
	Local     LocalSettings
	Cloud     CloudSettings
	Analysis  AnalysisSettings
	Scoring   ScoringSettings

	// Keywords maps a language code to its gap-indicator terms.
	Keywords map[string][]string
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Mode: BackendLocal,
		Chunking: ChunkingSettings{
			Size:      1000,
			Overlap:   200,
			Tolerance: 150,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultEmbeddingModels()[AIProviderOllama],
			BatchSize: 32,
		},
		Local: LocalSettings{
			Model:              DefaultLLMModels()[AIProviderOllama],
			ContextChars:       6000,
			RequireAccelerator: true,
		},
		Cloud: CloudSettings{
			Provider:          AIProviderGemini,
			Model:             DefaultLLMModels()[AIProviderGemini],
			ContextChars:      24000,
			MaxInFlight:       4,
			RequestsPerSecond: 1,
			MaxAttempts:       3,
		},
		Analysis: AnalysisSettings{
			TopK:             8,
			MaxCandidates:    12,
			MinSimilarity:    0.3,
			ContextNeighbors: 2,
			MaxProbeQueries:  4,
			Workers:          2,
			CallTimeout:      90 * time.Second,
		},
		Scoring: ScoringSettings{
			TriggerWeight:     0.4,
			BackendWeight:     0.6,
			DefaultConfidence: 0.5,
			DedupeThreshold:   0.8,
		},
		Keywords: DefaultKeywords(),
	}
}

// DefaultKeywords returns the built-in gap-indicator terms per language.
// A trailing '*' marks a prefix term.
func DefaultKeywords() map[string][]string {
	return map[string][]string{
		"en": {
			"limitation*", "research gap*", "knowledge gap*", "gap in the literature",
			"future work", "future research", "further research", "further studies",
			"shortage", "insufficien*", "lack of", "deficienc*", "inadequa*",
			"unexplored", "under-researched", "underexplored", "insufficiently studied",
			"neglected", "unexamined", "sparse", "incomplete", "under-theorized",
			"unaddressed", "overlooked", "underestimated", "uncharted", "remains unclear",
			"open question*",
		},
		"pt": {
			"limitaç*", "lacuna*", "trabalhos futuros", "pesquisas futuras",
			"estudos futuros", "escassez", "insuficien*", "falta de", "deficiênci*",
			"inexplorad*", "pouco estudad*", "negligenciad*", "incomplet*",
			"não abordad*", "permanece incerto",
		},
		"es": {
			"limitacion*", "laguna*", "vacío de conocimiento", "trabajo futuro",
			"investigaciones futuras", "escasez", "insuficien*", "falta de",
			"inexplorad*", "poco estudiad*", "desatendid*", "incomplet*",
		},
	}
}

// AllBackendKinds returns all backend kinds.
func AllBackendKinds() []BackendKind {
	return []BackendKind{BackendLocal, BackendCloud}
}

// AllCloudProviders returns providers that can back the cloud backend.
func AllCloudProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "paraphrase-multilingual",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "qwen2.5:3b-instruct",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderGemini:    "gemini-2.5-flash-lite",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"paraphrase-multilingual": 768,
		"nomic-embed-text":        768,
		"mxbai-embed-large":       1024,
		"all-minilm":              384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// IsCredentialKey reports whether a config key names a credential.
// Credentials live in memory for one session and are never persisted.
func IsCredentialKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	return key == "api_key" || strings.HasSuffix(key, ".api_key")
}
