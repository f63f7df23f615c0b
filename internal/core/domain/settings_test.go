package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 4, s.Retrieval.K)
	assert.InDelta(t, 0.6, s.Retrieval.Threshold, 1e-9)
	assert.Equal(t, 1000, s.Retrieval.ChunkSize)
	assert.InDelta(t, 0.4, s.LLM.Temperature, 1e-9)
	assert.True(t, s.Storage.KeepUploads)
	assert.Equal(t, DefaultUserAgent, s.Scraper.UserAgent)
	assert.True(t, s.Embedding.IsConfigured(), "local embeddings need no key")
	assert.Equal(t, AIProviderTogether, s.LLM.Provider)
	assert.False(t, s.LLM.IsConfigured(), "together needs an API key")
	assert.True(t, s.Transcription.IsConfigured())
	assert.False(t, s.WebSearch.IsConfigured())
}

func TestAIProvider(t *testing.T) {
	assert.True(t, AIProviderTogether.IsValid())
	assert.True(t, AIProviderTogether.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderWhisper.IsLocal())
	assert.False(t, AIProvider("bogus").IsValid())
	assert.Equal(t, unknownDescription, AIProvider("bogus").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
}

func TestTranscriptionSettings_IsConfigured(t *testing.T) {
	assert.True(t, TranscriptionSettings{Provider: AIProviderWhisper, Command: "whisper"}.IsConfigured())
	assert.False(t, TranscriptionSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, TranscriptionSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
	assert.False(t, TranscriptionSettings{}.IsConfigured())
}

func TestDefaultModels(t *testing.T) {
	assert.Equal(t, "mistralai/Mistral-7B-Instruct-v0.2", DefaultLLMModels()[AIProviderTogether])
	assert.Equal(t, 384, EmbeddingDimensions()[DefaultEmbeddingModels()[AIProviderOllama]])
}
