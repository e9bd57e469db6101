// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// LLMConfig selects and configures one model API.
type LLMConfig struct {
	Provider domain.AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// CreateLLMService creates the LLM service for the configured provider.
func CreateLLMService(ctx context.Context, cfg LLMConfig) (driven.LLMService, error) {
	if cfg.Provider.RequiresAPIKey() && cfg.APIKey == "" {
		return nil, fmt.Errorf("%s requires an API key", cfg.Provider)
	}

	var (
		svc driven.LLMService
		err error
	)
	switch cfg.Provider {
	case domain.AIProviderOllama:
		svc, err = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case domain.AIProviderGemini:
		svc, err = geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateEmbeddingService creates the embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	dimensions := domain.EmbeddingDimensions()[settings.Model]

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc, err = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})
	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})
	default:
		return nil, fmt.Errorf("%w: %s does not provide embeddings, use ollama or openai",
			domain.ErrUnsupportedType, settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and checks
// that it answers. A nil service with a nil error means embeddings are not
// configured and documents will be screened by keyword only.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'gapfinder config' to fix", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}
