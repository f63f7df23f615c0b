package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Tavily key",
			input:    "tvly-1234567890abcdefghijklmnop",
			expected: "tvly...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{"Empty input returns default", "", 5, 1, 1},
		{"Valid choice within range", "3", 5, 1, 3},
		{"Choice below minimum returns default", "0", 5, 1, 1},
		{"Choice above maximum returns default", "6", 5, 1, 1},
		{"Invalid input returns default", "abc", 5, 2, 2},
		{"Negative number returns default", "-1", 5, 1, 1},
		{"Maximum value is valid", "5", 5, 1, 5},
		{"Minimum value is valid", "1", 5, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.WebSearch.APIKey = "tvly-abcdefghijkl"

	out, err := execute(t, "settings", "show")
	require.NoError(t, err)

	for _, want := range []string{
		"[Storage]",
		"Base directory: /tmp/recall",
		"[Retrieval]",
		"Chunks per source (k): 4",
		"Distance threshold: 0.60",
		"Chunk size: 1000 characters",
		"[Embedding]",
		"Model: all-minilm",
		"[Transcription]",
		"Command: whisper",
		"[Internet Search]",
		"API Key: tvly...ijkl",
		"Configuration is valid.",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "abcdefghijkl")
}

func TestSettingsShow_ValidationWarning(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New("embedding provider not configured")

	out, err := execute(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: embedding provider not configured")
	assert.Contains(t, out, "recall settings wizard")
}

func TestSettingsSet(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "set", "retrieval.threshold", "0.45")
	require.NoError(t, err)
	assert.Equal(t, "0.45", ts.settings.set["retrieval.threshold"])
	assert.Contains(t, out, "retrieval.threshold = 0.45")
}

func TestSettingsSet_MasksAPIKeys(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "set", "web_search.api_key", "tvly-secretsecret")
	require.NoError(t, err)
	assert.Equal(t, "tvly-secretsecret", ts.settings.set["web_search.api_key"])
	assert.Contains(t, out, "web_search.api_key = tvly...cret")
}

func TestSettingsSet_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.setErr = errors.New("unknown setting")

	_, err := execute(t, "settings", "set", "nope", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set nope")
}

func TestSettingsWizard(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	// Ollama embeddings with default model, OpenAI LLM with a key,
	// whisper defaults, Tavily key.
	input := strings.Join([]string{
		"1", "",
		"2", "", "sk-llm-key-123456",
		"1", "", "",
		"tvly-web-key-123456",
	}, "\n") + "\n"

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs([]string{"settings", "wizard"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, []string{"ollama", "all-minilm", ""}, ts.settings.embedding)
	assert.Equal(t, []string{"openai", "gpt-4o-mini", "sk-llm-key-123456"}, ts.settings.llm)
	assert.Equal(t, "whisper", ts.settings.set["transcription.provider"])
	assert.Equal(t, "whisper", ts.settings.set["transcription.command"])
	assert.Equal(t, "base", ts.settings.set["transcription.model"])
	assert.Equal(t, "tvly-web-key-123456", ts.settings.set["web_search.api_key"])
	assert.Contains(t, buf.String(), "Configuration Complete!")
}

func TestSettingsWizard_SkipsWebSearch(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	input := strings.Join([]string{"1", "", "1", "", "1", "", "", ""}, "\n") + "\n"
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs([]string{"settings", "wizard"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	_, ok := ts.settings.set["web_search.api_key"]
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "Internet search fallback left unchanged.")
}

func TestConfigureTranscription_OpenAIRequiresKey(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader("1\n\n1\n\n2\n\n"))
	rootCmd.SetArgs([]string{"settings", "wizard"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}
