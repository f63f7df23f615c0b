package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the built-in default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer renders the retrieved context and the question for generation.
	// The template uses {context} and {query} placeholders.
	PromptAnswer = "answer"
)

// DefaultAnswerPrompt is the built-in answer template.
const DefaultAnswerPrompt = `You are an expert assistant. Use the context to answer concisely.

Context:
{context}

Question: {query}
Answer:`
