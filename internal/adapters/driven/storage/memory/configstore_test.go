package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var store driven.ConfigStore = NewConfigStore()
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("cloud.provider", "gemini"))
	require.NoError(t, store.Set("cloud.provider", "openai"))

	val, ok := store.Get("cloud.provider")
	assert.True(t, ok)
	assert.Equal(t, "openai", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("s", "text")
	_ = store.Set("i", 42)
	_ = store.Set("i64", int64(7))
	_ = store.Set("f", 0.25)
	_ = store.Set("b", true)
	_ = store.Set("list", []any{"en", 3, "pt"})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("s"), "text"},
		{"string wrong type", store.GetString("i"), ""},
		{"int", store.GetInt("i"), 42},
		{"int from int64", store.GetInt("i64"), 7},
		{"int from float", store.GetInt("f"), 0},
		{"int wrong type", store.GetInt("s"), 0},
		{"float", store.GetFloat("f"), 0.25},
		{"float from int", store.GetFloat("i"), 42.0},
		{"float from int64", store.GetFloat("i64"), 7.0},
		{"float missing", store.GetFloat("missing"), 0.0},
		{"bool", store.GetBool("b"), true},
		{"bool wrong type", store.GetBool("s"), false},
		{"slice drops non strings", store.GetStringSlice("list"), []string{"en", "pt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	assert.Nil(t, store.GetStringSlice("s"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("local.model", "qwen")
	_ = store.Set("analysis.top_k", 8)

	assert.Equal(t, []string{"analysis.top_k", "local.model"}, store.Keys())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("analysis.workers", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("analysis.workers")
		}()
	}
	wg.Wait()

	_, ok := store.Get("analysis.workers")
	assert.True(t, ok)
}

func TestConfigStore_Seed(t *testing.T) {
	store := NewConfigStore(map[string]any{"mode": "cloud"}, map[string]any{"cloud.provider": "gemini"})

	assert.Equal(t, "cloud", store.GetString("mode"))
	assert.Equal(t, "gemini", store.GetString("cloud.provider"))
	assert.Equal(t, 0, store.Saves())
}

func TestConfigStore_RefusesCredentials(t *testing.T) {
	store := NewConfigStore()

	for _, key := range []string{"api_key", "cloud.api_key", "Embedding.API_KEY"} {
		assert.Error(t, store.Set(key, "secret"), key)
	}
	assert.Empty(t, store.Keys())

	require.NoError(t, store.Set("cloud.model", "gpt-4o-mini"))
	require.NoError(t, store.Save())
	assert.Equal(t, 2, store.Saves())
}
