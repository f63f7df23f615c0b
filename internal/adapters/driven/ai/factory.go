// Package ai builds embedding, generation and transcription adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/recall/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/recall/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/recall/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/recall/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/recall/internal/adapters/driven/llm/openai"
	openaitranscribe "github.com/custodia-labs/recall/internal/adapters/driven/transcribe/openai"
	"github.com/custodia-labs/recall/internal/adapters/driven/transcribe/whisper"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// wizardHint is appended to construction errors shown to users.
const wizardHint = "Run 'recall settings wizard' to fix"

// Services holds the AI adapters built from settings. Any field may be nil
// when its provider is not configured; Warnings explains why.
type Services struct {
	Embedding   driven.EmbeddingService
	LLM         driven.LLMService
	Transcriber driven.Transcriber
	Warnings    []string
}

// Close releases all resources held by the services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// Build creates every configured service without contacting providers.
// Construction failures become warnings so the remaining pipelines still work.
func Build(settings *domain.AppSettings, runner driven.CommandRunner) *Services {
	out := &Services{}

	if svc, err := CreateEmbeddingService(&settings.Embedding); err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("embeddings disabled: %v", err))
	} else if svc == nil {
		out.Warnings = append(out.Warnings, "embeddings not configured: ingestion and retrieval are unavailable")
	} else {
		out.Embedding = svc
	}

	if svc, err := CreateLLMService(&settings.LLM); err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("answer generation disabled: %v", err))
	} else if svc == nil {
		out.Warnings = append(out.Warnings, "LLM not configured: answers from stored content are unavailable")
	} else {
		out.LLM = svc
	}

	if tr, err := CreateTranscriber(&settings.Transcription, runner); err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("transcription disabled: %v", err))
	} else if tr == nil {
		out.Warnings = append(out.Warnings, "transcription not configured: video ingestion is unavailable")
	} else {
		out.Transcriber = tr
	}

	return out
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, wizardHint)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, wizardHint)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, wizardHint)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, wizardHint)
	}
	return svc, nil
}

// ValidateEmbeddingConfig creates a service from settings and pings it.
// Unconfigured settings are valid.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig creates a service from settings and pings it.
// Unconfigured settings are valid.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for the provider.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		dimensions := domain.EmbeddingDimensions()[settings.Model]
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI, domain.AIProviderTogether:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    baseURL(settings.Provider, settings.BaseURL),
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderAnthropic, domain.AIProviderWhisper:
		return nil, fmt.Errorf("%s does not support embeddings, use ollama, openai or together", settings.Provider)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service for the provider.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI, domain.AIProviderTogether:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: baseURL(settings.Provider, settings.BaseURL),
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderWhisper:
		return nil, errors.New("whisper is a transcription provider, not an LLM")

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateTranscriber creates the speech-to-text adapter for the provider.
// Returns nil if the provider is not configured.
func CreateTranscriber(settings *domain.TranscriptionSettings, runner driven.CommandRunner) (driven.Transcriber, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		model := settings.Model
		if model == "" || model == whisper.DefaultModel {
			model = openaitranscribe.DefaultModel
		}
		tr, err := openaitranscribe.NewTranscriber(openaitranscribe.Config{
			APIKey: settings.APIKey,
			Model:  model,
		})
		if err != nil {
			return nil, err
		}
		return tr, nil

	case domain.AIProviderWhisper:
		if runner == nil {
			return nil, errors.New("whisper requires a command runner")
		}
		return whisper.NewTranscriber(runner, whisper.Config{
			Command: settings.Command,
			Model:   settings.Model,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", settings.Provider)
	}
}

// baseURL returns the configured URL or the provider's default endpoint.
func baseURL(provider domain.AIProvider, configured string) string {
	if configured != "" {
		return configured
	}
	if provider == domain.AIProviderTogether {
		return openaillm.TogetherBaseURL
	}
	return openaillm.DefaultBaseURL
}
