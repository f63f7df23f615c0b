package driven

import "github.com/custodia-labs/recall/internal/core/domain"

// AIConfigValidator checks provider settings before they are saved, by
// building the service and pinging it.
type AIConfigValidator interface {
	// ValidateEmbedding returns nil when the settings are usable or unset.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM returns nil when the settings are usable or unset.
	ValidateLLM(config *domain.LLMSettings) error
}
