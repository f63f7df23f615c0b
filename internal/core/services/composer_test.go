package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

func TestAnswerComposer_BuildPrompt_Default(t *testing.T) {
	c := NewAnswerComposer(nil, nil)

	prompt := c.BuildPrompt("How much?", "A\n\nB")

	assert.Equal(t, `You are an expert assistant. Use the context to answer concisely.

Context:
A

B

Question: How much?
Answer:`, prompt)
}

func TestAnswerComposer_BuildPrompt_FromStore(t *testing.T) {
	prompts := &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswer: "Q={query} C={context}",
	}}
	c := NewAnswerComposer(nil, prompts)

	assert.Equal(t, "Q=why C=because", c.BuildPrompt("why", "because"))
}

func TestAnswerComposer_Compose(t *testing.T) {
	llm := &mockLLMService{response: "  Revenue grew 12 percent.\n"}
	c := NewAnswerComposer(llm, nil)

	out, err := c.Compose(context.Background(), "How much did revenue grow?", "ctx",
		domain.SourceDocuments.AnswerTag())

	require.NoError(t, err)
	assert.Equal(t, "📄 Answer (from uploaded documents):\nRevenue grew 12 percent.", out)
	require.Len(t, llm.opts, 1)
	assert.InDelta(t, 0.4, llm.opts[0].Temperature, 1e-9)
	assert.Contains(t, llm.prompts[0], "Question: How much did revenue grow?")
}

func TestAnswerComposer_Compose_Errors(t *testing.T) {
	_, err := NewAnswerComposer(nil, nil).Compose(context.Background(), "q", "c", "tag")
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	llm := &mockLLMService{err: errors.New("rate limited")}
	_, err = NewAnswerComposer(llm, nil).Compose(context.Background(), "q", "c", "tag")
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAnswerComposer_Settings(t *testing.T) {
	llm := &mockLLMService{response: "ok"}
	c := NewAnswerComposer(llm, nil)
	c.SetTemperature(0.9)
	c.SetTemperature(-1)
	c.SetMaxTokens(256)

	_, err := c.Compose(context.Background(), "q", "c", "tag")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, llm.opts[0].Temperature, 1e-9)
	assert.Equal(t, 256, llm.opts[0].MaxTokens)
}

func TestInternetAnswer(t *testing.T) {
	assert.Equal(t, "🌐 **Answer (via Internet Search):**\nParis", InternetAnswer("Paris"))
}
