package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// AnswerComposer turns retrieved context into a tagged answer.
type AnswerComposer struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	temperature float64
	maxTokens   int
}

// NewAnswerComposer creates a composer. The prompt store is optional;
// without one the built-in answer template is used.
func NewAnswerComposer(llm driven.LLMService, prompts driven.PromptStore) *AnswerComposer {
	return &AnswerComposer{
		llm:         llm,
		prompts:     prompts,
		temperature: domain.DefaultTemperature,
	}
}

// SetTemperature overrides the sampling temperature.
func (c *AnswerComposer) SetTemperature(t float64) {
	if t >= 0 {
		c.temperature = t
	}
}

// SetMaxTokens caps the generated answer length. Zero means provider default.
func (c *AnswerComposer) SetMaxTokens(n int) {
	c.maxTokens = n
}

// BuildPrompt fills the answer template with the retrieved passages and query.
func (c *AnswerComposer) BuildPrompt(query, passages string) string {
	tmpl := driven.DefaultAnswerPrompt
	if c.prompts != nil {
		if t, err := c.prompts.Load(driven.PromptAnswer); err == nil && strings.TrimSpace(t) != "" {
			tmpl = t
		} else if err != nil {
			logger.Debug("Using default answer prompt: %v", err)
		}
	}
	return strings.NewReplacer("{context}", passages, "{query}", query).Replace(tmpl)
}

// Compose asks the LLM to answer query from passages and prefixes the
// result with tag. The returned text has the form "<tag>:\n<answer>".
func (c *AnswerComposer) Compose(ctx context.Context, query, passages, tag string) (string, error) {
	if c.llm == nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, domain.ErrLLMUnavailable)
	}

	prompt := c.BuildPrompt(query, passages)
	logger.Debug("Prompt: %d chars, model %s", len(prompt), c.llm.ModelName())

	out, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return tag + ":\n" + strings.TrimSpace(out), nil
}

// InternetAnswer formats a web search answer. No model is involved.
func InternetAnswer(text string) string {
	return domain.InternetAnswerTag + "\n" + text
}
