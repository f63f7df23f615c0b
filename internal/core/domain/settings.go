package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings, generation or transcription.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderTogether is Together AI's OpenAI-compatible API.
	AIProviderTogether AIProvider = "together"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderWhisper is a local whisper command-line install.
	AIProviderWhisper AIProvider = "whisper"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderTogether, AIProviderAnthropic, AIProviderWhisper:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderTogether || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderWhisper
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
	case AIProviderTogether:
		return "Together AI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderWhisper:
		return "Whisper CLI (local)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Temperature controls randomness of answers.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// TranscriptionSettings holds speech-to-text configuration.
type TranscriptionSettings struct {
	// Provider is openai (hosted whisper-1) or whisper (local CLI).
	Provider AIProvider

	// Model is the transcription model ("whisper-1", or "base"/"medium" for the CLI).
	Model string

	// APIKey is the API key for the hosted provider.
	APIKey string

	// Command is the local whisper executable.
	Command string
}

// IsConfigured returns true if the transcription provider is set up.
func (t TranscriptionSettings) IsConfigured() bool {
	switch t.Provider {
	case AIProviderOpenAI:
		return t.APIKey != ""
	case AIProviderWhisper:
		return t.Command != ""
	default:
		return false
	}
}

// WebSearchSettings holds live search fallback configuration.
type WebSearchSettings struct {
	// APIKey is the Tavily API key.
	APIKey string

	// MaxResults bounds the number of search results summarised.
	MaxResults int
}

// IsConfigured returns true if the fallback can be used.
func (w WebSearchSettings) IsConfigured() bool {
	return w.APIKey != ""
}

// RetrievalSettings holds cascade parameters.
type RetrievalSettings struct {
	// K is the number of nearest chunks requested per source.
	K int

	// Threshold is the admission cutoff on squared L2 distance.
	// Chunks with distance strictly below it are admitted.
	Threshold float64

	// ChunkSize is the fixed window length in characters.
	ChunkSize int
}

// StorageSettings holds on-disk layout configuration.
type StorageSettings struct {
	// BaseDir contains one directory per source kind plus uploads and metadata.
	BaseDir string

	// KeepUploads copies ingested files into the uploads directories.
	KeepUploads bool
}

// ScraperSettings holds web fetch configuration.
type ScraperSettings struct {
	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds a single page fetch.
	Timeout time.Duration

	// RequestsPerSecond throttles fetches. Zero disables throttling.
	RequestsPerSecond float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage       StorageSettings
	Retrieval     RetrievalSettings
	Embedding     EmbeddingSettings
	LLM           LLMSettings
	Transcription TranscriptionSettings
	WebSearch     WebSearchSettings
	Scraper       ScraperSettings
}

// Defaults for retrieval and ingestion.
const (
	DefaultK         = 4
	DefaultThreshold = 0.6
	DefaultChunkSize = 1000
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultTemperature is used for answer generation.
	DefaultTemperature = 0.4
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	DefaultMaxResults  = 5
)

// DefaultAppSettings returns settings with sensible defaults: local
// embeddings and transcription, Together for generation.
// API keys come from the config file or the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			KeepUploads: true,
		},
		Retrieval: RetrievalSettings{
			K:         DefaultK,
			Threshold: DefaultThreshold,
			ChunkSize: DefaultChunkSize,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "all-minilm",
			BaseURL:  DefaultOllamaURL,
		},
		LLM: LLMSettings{
			Provider:    AIProviderTogether,
			Model:       "mistralai/Mistral-7B-Instruct-v0.2",
			Temperature: DefaultTemperature,
		},
		Transcription: TranscriptionSettings{
			Provider: AIProviderWhisper,
			Model:    "base",
			Command:  "whisper",
		},
		WebSearch: WebSearchSettings{
			MaxResults: DefaultMaxResults,
		},
		Scraper: ScraperSettings{
			UserAgent:         DefaultUserAgent,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 2,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderTogether,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderTogether,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:   "all-minilm",
		AIProviderOpenAI:   "text-embedding-3-small",
		AIProviderTogether: "togethercomputer/m2-bert-80M-8k-retrieval",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderTogether:  "mistralai/Mistral-7B-Instruct-v0.2",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Together models
		"togethercomputer/m2-bert-80M-8k-retrieval": 768,
		"BAAI/bge-base-en-v1.5":                     768,
	}
}
