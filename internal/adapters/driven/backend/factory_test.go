package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

func newTestFactory(configs *[]ai.LLMConfig) *Factory {
	f := NewFactory(nil, &staticProbe{name: "metal"})
	f.newLLM = func(_ context.Context, cfg ai.LLMConfig) (driven.LLMService, error) {
		*configs = append(*configs, cfg)
		return &scriptedLLM{}, nil
	}
	return f
}

func TestFactory_NewBackend(t *testing.T) {
	var configs []ai.LLMConfig
	f := newTestFactory(&configs)
	settings := domain.DefaultSettings()

	local, err := f.NewBackend(domain.BackendLocal, settings, "ignored")
	require.NoError(t, err)
	assert.Equal(t, domain.BackendLocal, local.Kind())
	assert.Equal(t, settings.Local.ContextChars, local.ContextLimit())

	cloud, err := f.NewBackend(domain.BackendCloud, settings, "secret")
	require.NoError(t, err)
	assert.Equal(t, domain.BackendCloud, cloud.Kind())

	require.Len(t, configs, 2)
	assert.Equal(t, domain.AIProviderOllama, configs[0].Provider)
	assert.Empty(t, configs[0].APIKey)
	assert.Equal(t, domain.AIProviderGemini, configs[1].Provider)
	assert.Equal(t, "secret", configs[1].APIKey)
}

func TestFactory_CloudWithoutKey(t *testing.T) {
	var configs []ai.LLMConfig
	f := newTestFactory(&configs)

	_, err := f.NewBackend(domain.BackendCloud, domain.DefaultSettings(), "")
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, errNoAPIKey)
	assert.Empty(t, configs)
}

func TestFactory_Unsupported(t *testing.T) {
	var configs []ai.LLMConfig
	f := newTestFactory(&configs)

	_, err := f.NewBackend("remote", domain.DefaultSettings(), "")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	settings := domain.DefaultSettings()
	settings.Cloud.Provider = domain.AIProviderOllama
	_, err = f.NewBackend(domain.BackendCloud, settings, "key")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
