package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyBaseDir          = "storage.base_dir"
	keyKeepUploads      = "storage.keep_uploads"
	keyRetrievalK       = "retrieval.k"
	keyThreshold        = "retrieval.threshold"
	keyChunkSize        = "retrieval.chunk_size"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTemperature   = "llm.temperature"
	keyTransProvider    = "transcription.provider"
	keyTransModel       = "transcription.model"
	keyTransAPIKey      = "transcription.api_key"
	keyTransCommand     = "transcription.command"
	keyWebAPIKey        = "web_search.api_key"
	keyWebMaxResults    = "web_search.max_results"
	keyScraperUserAgent = "scraper.user_agent"
	keyScraperTimeout   = "scraper.timeout"
	keyScraperRate      = "scraper.requests_per_second"
)

// Environment variables consulted when the matching key is unset.
const (
	EnvOpenAIKey   = "OPENAI_API_KEY"
	EnvTogetherKey = "TOGETHER_API_KEY"
	EnvTavilyKey   = "TAVILY_API_KEY"
	EnvStoragePath = "PERSISTENT_STORAGE_PATH"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindProvider
)

// settableKeys lists every key accepted by Set and how its value is parsed.
var settableKeys = map[string]keyKind{
	keyBaseDir:          kindString,
	keyKeepUploads:      kindBool,
	keyRetrievalK:       kindInt,
	keyThreshold:        kindFloat,
	keyChunkSize:        kindInt,
	keyEmbedProvider:    kindProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyLLMProvider:      kindProvider,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyLLMTemperature:   kindFloat,
	keyTransProvider:    kindProvider,
	keyTransModel:       kindString,
	keyTransAPIKey:      kindString,
	keyTransCommand:     kindString,
	keyWebAPIKey:        kindString,
	keyWebMaxResults:    kindInt,
	keyScraperUserAgent: kindString,
	keyScraperTimeout:   kindDuration,
	keyScraperRate:      kindFloat,
}

// SettableKeys returns the keys accepted by Set, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// SetEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) SetEnv(getenv func(string) string) {
	s.getenv = getenv
}

// Get retrieves current application settings.
// Unset keys take their defaults; unset API keys and the storage
// directory fall back to the environment.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	return s.load(true), nil
}

// load reads settings from the config store. Environment fallbacks are
// applied only when resolveEnv is set, so settings loaded for a
// read-modify-write never copy environment values into the config file.
func (s *SettingsService) load(resolveEnv bool) *domain.AppSettings {
	defaults := domain.DefaultAppSettings()
	getenv := s.getenv
	if !resolveEnv {
		getenv = func(string) string { return "" }
	}
	baseDir := s.configStore.GetString(keyBaseDir)
	if baseDir == "" && resolveEnv {
		baseDir = s.defaultBaseDir()
	}

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			BaseDir:     baseDir,
			KeepUploads: s.getBool(keyKeepUploads, defaults.Storage.KeepUploads),
		},
		Retrieval: domain.RetrievalSettings{
			K:         s.getInt(keyRetrievalK, defaults.Retrieval.K),
			Threshold: s.getFloat(keyThreshold, defaults.Retrieval.Threshold),
			ChunkSize: s.getInt(keyChunkSize, defaults.Retrieval.ChunkSize),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
		},
		Transcription: domain.TranscriptionSettings{
			Provider: s.getProvider(keyTransProvider, defaults.Transcription.Provider),
			Model:    s.getString(keyTransModel, defaults.Transcription.Model),
			APIKey:   s.configStore.GetString(keyTransAPIKey),
			Command:  s.getString(keyTransCommand, defaults.Transcription.Command),
		},
		WebSearch: domain.WebSearchSettings{
			APIKey:     s.getString(keyWebAPIKey, getenv(EnvTavilyKey)),
			MaxResults: s.getInt(keyWebMaxResults, defaults.WebSearch.MaxResults),
		},
		Scraper: domain.ScraperSettings{
			UserAgent:         s.getString(keyScraperUserAgent, defaults.Scraper.UserAgent),
			Timeout:           s.getDuration(keyScraperTimeout, defaults.Scraper.Timeout),
			RequestsPerSecond: s.getFloat(keyScraperRate, defaults.Scraper.RequestsPerSecond),
		},
	}

	if settings.Embedding.Provider == domain.AIProviderOllama && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = domain.DefaultOllamaURL
	}
	if settings.LLM.Provider == domain.AIProviderOllama && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = domain.DefaultOllamaURL
	}
	if resolveEnv {
		if settings.Embedding.APIKey == "" {
			settings.Embedding.APIKey = s.envKey(settings.Embedding.Provider)
		}
		if settings.LLM.APIKey == "" {
			settings.LLM.APIKey = s.envKey(settings.LLM.Provider)
		}
		if settings.Transcription.APIKey == "" {
			settings.Transcription.APIKey = s.envKey(settings.Transcription.Provider)
		}
	}

	return settings
}

// Save persists application settings.
// API keys and the storage directory are only written when set.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyKeepUploads, settings.Storage.KeepUploads},
		{keyRetrievalK, settings.Retrieval.K},
		{keyThreshold, settings.Retrieval.Threshold},
		{keyChunkSize, settings.Retrieval.ChunkSize},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyTransProvider, settings.Transcription.Provider.String()},
		{keyTransModel, settings.Transcription.Model},
		{keyTransCommand, settings.Transcription.Command},
		{keyWebMaxResults, settings.WebSearch.MaxResults},
		{keyScraperUserAgent, settings.Scraper.UserAgent},
		{keyScraperTimeout, settings.Scraper.Timeout.String()},
		{keyScraperRate, settings.Scraper.RequestsPerSecond},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	optional := []struct {
		key   string
		value string
	}{
		{keyBaseDir, settings.Storage.BaseDir},
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyTransAPIKey, settings.Transcription.APIKey},
		{keyWebAPIKey, settings.WebSearch.APIKey},
	}
	for _, v := range optional {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Set parses value according to key and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a duration such as 10s", domain.ErrInvalidInput, key)
		}
		parsed = d.String()
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" && s.envKey(provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.load(false)
	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = domain.DefaultOllamaURL
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() || provider == domain.AIProviderWhisper {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" && s.envKey(provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.load(false)
	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = domain.DefaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the current settings can serve ingestion and questions.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Retrieval.K <= 0 {
		return fmt.Errorf("%s must be positive", keyRetrievalK)
	}
	if settings.Retrieval.Threshold <= 0 {
		return fmt.Errorf("%s must be positive", keyThreshold)
	}
	if settings.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("%s must be positive", keyChunkSize)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIKey)
	case domain.AIProviderTogether:
		return s.getenv(EnvTogetherKey)
	default:
		return ""
	}
}

func (s *SettingsService) defaultBaseDir() string {
	if dir := s.getenv(EnvStoragePath); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".recall", "data")
	}
	return filepath.Join(home, ".recall", "data")
}
