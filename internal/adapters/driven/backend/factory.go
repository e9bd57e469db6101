package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.BackendFactory = (*Factory)(nil)

// errNoAPIKey is reported when the cloud backend is requested without a key.
var errNoAPIKey = errors.New("no API key provided")

// Factory builds backends from settings.
type Factory struct {
	prompts driven.PromptStore
	probe   driven.AcceleratorProbe
	newLLM  func(ctx context.Context, cfg ai.LLMConfig) (driven.LLMService, error)
}

// NewFactory creates a backend factory. A nil probe uses NewHostProbe.
func NewFactory(prompts driven.PromptStore, probe driven.AcceleratorProbe) *Factory {
	if probe == nil {
		probe = NewHostProbe()
	}
	return &Factory{
		prompts: prompts,
		probe:   probe,
		newLLM:  ai.CreateLLMService,
	}
}

// NewBackend constructs the backend of the given kind. The API key is only
// held in memory by the cloud backend's client.
func (f *Factory) NewBackend(kind domain.BackendKind, settings domain.Settings, apiKey string) (driven.GapBackend, error) {
	switch kind {
	case domain.BackendLocal:
		llm, err := f.newLLM(context.Background(), ai.LLMConfig{
			Provider: domain.AIProviderOllama,
			Model:    settings.Local.Model,
			BaseURL:  settings.Local.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("local backend: %w", err)
		}
		b, err := NewLocalBackend(LocalConfig{
			LLM:                llm,
			Prompts:            f.prompts,
			Probe:              f.probe,
			RequireAccelerator: settings.Local.RequireAccelerator,
			ContextLimit:       settings.Local.ContextChars,
		})
		if err != nil {
			_ = llm.Close()
			return nil, err
		}
		return b, nil

	case domain.BackendCloud:
		provider := settings.Cloud.Provider
		if provider == "" {
			provider = domain.AIProviderGemini
		}
		if !provider.IsValid() || provider.IsLocal() {
			return nil, fmt.Errorf("%w: cloud provider %q", domain.ErrUnsupportedType, provider)
		}
		if apiKey == "" {
			return nil, &domain.AuthError{Backend: "cloud/" + provider.String(), Err: errNoAPIKey}
		}

		llm, err := f.newLLM(context.Background(), ai.LLMConfig{
			Provider: provider,
			Model:    settings.Cloud.Model,
			BaseURL:  settings.Cloud.BaseURL,
			APIKey:   apiKey,
		})
		if err != nil {
			return nil, fmt.Errorf("cloud backend: %w", err)
		}
		b, err := NewCloudBackend(CloudConfig{
			LLM:               llm,
			Prompts:           f.prompts,
			ContextLimit:      settings.Cloud.ContextChars,
			MaxInFlight:       settings.Cloud.MaxInFlight,
			RequestsPerSecond: settings.Cloud.RequestsPerSecond,
			MaxAttempts:       settings.Cloud.MaxAttempts,
		})
		if err != nil {
			_ = llm.Close()
			return nil, err
		}
		return b, nil

	default:
		return nil, fmt.Errorf("%w: backend %q", domain.ErrUnsupportedType, kind)
	}
}
