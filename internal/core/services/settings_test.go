package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
)

func newTestSettings(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	service.SetEnv(func(k string) string { return env[k] })
	return service, store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettings(nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Retrieval, settings.Retrieval)
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, domain.DefaultOllamaURL, settings.Embedding.BaseURL)
	assert.Equal(t, defaults.LLM.Model, settings.LLM.Model)
	assert.InDelta(t, 0.4, settings.LLM.Temperature, 1e-9)
	assert.Equal(t, defaults.Scraper, settings.Scraper)
	assert.True(t, settings.Storage.KeepUploads)
	assert.Contains(t, settings.Storage.BaseDir, ".recall")
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newTestSettings(nil)
	_ = store.Set("retrieval.k", 6)
	_ = store.Set("retrieval.threshold", 0.35)
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("storage.keep_uploads", false)
	_ = store.Set("scraper.timeout", "3s")

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, 6, settings.Retrieval.K)
	assert.InDelta(t, 0.35, settings.Retrieval.Threshold, 1e-9)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.False(t, settings.Storage.KeepUploads)
	assert.Equal(t, 3*time.Second, settings.Scraper.Timeout)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	service, store := newTestSettings(nil)
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("scraper.timeout", "soon")

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Scraper.Timeout, settings.Scraper.Timeout)
}

func TestSettingsService_Get_EnvironmentFallbacks(t *testing.T) {
	service, store := newTestSettings(map[string]string{
		EnvOpenAIKey:   "sk-openai",
		EnvTogetherKey: "tg-key",
		EnvTavilyKey:   "tv-key",
		EnvStoragePath: "/srv/recall",
	})
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("transcription.provider", "openai")

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, "sk-openai", settings.Embedding.APIKey)
	assert.Equal(t, "tg-key", settings.LLM.APIKey)
	assert.Equal(t, "sk-openai", settings.Transcription.APIKey)
	assert.Equal(t, "tv-key", settings.WebSearch.APIKey)
	assert.Equal(t, "/srv/recall", settings.Storage.BaseDir)
}

func TestSettingsService_Get_ConfigBeatsEnvironment(t *testing.T) {
	service, store := newTestSettings(map[string]string{EnvTogetherKey: "from-env", EnvStoragePath: "/env"})
	_ = store.Set("llm.api_key", "from-config")
	_ = store.Set("storage.base_dir", "/config")

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, "from-config", settings.LLM.APIKey)
	assert.Equal(t, "/config", settings.Storage.BaseDir)
}

func TestSettingsService_Save_RoundTrip(t *testing.T) {
	service, store := newTestSettings(nil)

	settings := domain.DefaultAppSettings()
	settings.Retrieval.K = 8
	settings.LLM.APIKey = "key"
	settings.Scraper.Timeout = 30 * time.Second

	require.NoError(t, service.Save(&settings))

	assert.Equal(t, "key", store.GetString("llm.api_key"))
	_, hasEmbedKey := store.Get("embedding.api_key")
	assert.False(t, hasEmbedKey, "empty api keys are not written")

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 8, got.Retrieval.K)
	assert.Equal(t, 30*time.Second, got.Scraper.Timeout)
}

// Mock config store that fails on Set
type failingConfigStore struct {
	*memory.ConfigStore
	failOn string
}

func (f *failingConfigStore) Set(key string, value any) error {
	if f.failOn == "" || key == f.failOn {
		return assert.AnError
	}
	return f.ConfigStore.Set(key, value)
}

func TestSettingsService_Save_Error(t *testing.T) {
	for _, key := range []string{"retrieval.k", "llm.model", "scraper.timeout", "llm.api_key"} {
		t.Run(key, func(t *testing.T) {
			store := &failingConfigStore{ConfigStore: memory.NewConfigStore(), failOn: key}
			service := NewSettingsService(store, nil)

			settings := domain.DefaultAppSettings()
			settings.LLM.APIKey = "k"
			err := service.Save(&settings)

			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		key, value string
		want       any
		wantErr    bool
	}{
		{"retrieval.k", "5", 5, false},
		{"retrieval.k", "0", nil, true},
		{"retrieval.threshold", "0.8", 0.8, false},
		{"retrieval.threshold", "abc", nil, true},
		{"storage.keep_uploads", "false", false, false},
		{"scraper.timeout", "15s", "15s", false},
		{"scraper.timeout", "15", nil, true},
		{"llm.provider", "openai", "openai", false},
		{"llm.provider", "gpt", nil, true},
		{"web_search.api_key", "tv", "tv", false},
		{"no.such.key", "x", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			service, store := newTestSettings(nil)

			err := service.Set(tt.key, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			val, ok := store.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, val)
		})
	}
}

func TestSettableKeys_Sorted(t *testing.T) {
	keys := SettableKeys()
	assert.Contains(t, keys, "retrieval.threshold")
	assert.IsIncreasing(t, keys)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	service, _ := newTestSettings(nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, "sk", settings.Embedding.APIKey)
}

func TestSettingsService_SetEmbeddingProvider_Errors(t *testing.T) {
	service, _ := newTestSettings(nil)

	assert.Error(t, service.SetEmbeddingProvider("bogus", "", ""))
	assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "k"))
	assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
}

func TestSettingsService_SetEmbeddingProvider_KeyFromEnvironment(t *testing.T) {
	service, store := newTestSettings(map[string]string{EnvTogetherKey: "tg", EnvStoragePath: "/env"})

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderTogether, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "tg", settings.Embedding.APIKey)

	for _, key := range []string{"embedding.api_key", "llm.api_key", "storage.base_dir"} {
		_, written := store.Get(key)
		assert.False(t, written, "%s copied from environment into config", key)
	}
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service, _ := newTestSettings(nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "llama3.2", settings.LLM.Model)
	assert.Equal(t, domain.DefaultOllamaURL, settings.LLM.BaseURL)

	assert.Error(t, service.SetLLMProvider(domain.AIProviderWhisper, "", ""))
	assert.Error(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", ""))
}

func TestSettingsService_Validate(t *testing.T) {
	service, store := newTestSettings(nil)

	err := service.Validate()
	require.Error(t, err, "together needs a key")
	assert.Contains(t, err.Error(), "LLM")

	_ = store.Set("llm.api_key", "k")
	require.NoError(t, service.Validate())

	_ = store.Set("retrieval.threshold", -1.0)
	assert.Error(t, service.Validate())
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service, _ := newTestSettings(nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

// Mock AIConfigValidator for testing
type mockAIConfigValidator struct {
	embedErr error
	llmErr   error
}

func (m *mockAIConfigValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockAIConfigValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

func TestSettingsService_ValidateConfig(t *testing.T) {
	store := memory.NewConfigStore()

	assert.NoError(t, NewSettingsService(store, nil).ValidateEmbeddingConfig())
	assert.NoError(t, NewSettingsService(store, nil).ValidateLLMConfig())

	ok := NewSettingsService(store, &mockAIConfigValidator{})
	assert.NoError(t, ok.ValidateEmbeddingConfig())
	assert.NoError(t, ok.ValidateLLMConfig())

	failing := NewSettingsService(store, &mockAIConfigValidator{embedErr: assert.AnError, llmErr: assert.AnError})
	assert.ErrorIs(t, failing.ValidateEmbeddingConfig(), assert.AnError)
	assert.ErrorIs(t, failing.ValidateLLMConfig(), assert.AnError)
}
