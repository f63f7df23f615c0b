package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

func newPromptStore(t *testing.T) (*PromptStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewPromptStore_NoIO(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
	assert.NoDirExists(t, dir, "directory is created lazily")
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	store, dir := newPromptStore(t)

	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Equal(t, driven.DefaultAnswerPrompt, prompt)
	assert.FileExists(t, filepath.Join(dir, "answer.txt"))
	assert.FileExists(t, filepath.Join(dir, "README.md"))
}

func TestPromptStore_Load_CustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Context: {context}\nQ: {query}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte("\n"+custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt, "surrounding whitespace is trimmed")

	data, _ := os.ReadFile(filepath.Join(dir, "answer.txt"))
	assert.Contains(t, string(data), custom, "existing files are not overwritten")
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	store, dir := newPromptStore(t)
	_, _ = store.Load(driven.PromptAnswer)
	require.NoError(t, os.Remove(filepath.Join(dir, "answer.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Equal(t, driven.DefaultAnswerPrompt, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, _ := newPromptStore(t)

	_, err := store.Load("nonexistent_prompt")

	assert.ErrorContains(t, err, "nonexistent_prompt")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	store, dir := newPromptStore(t)
	_, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte("edited {context} {query}"), 0600))

	cached, _ := store.Load(driven.PromptAnswer)
	assert.Equal(t, driven.DefaultAnswerPrompt, cached)

	store.Reload()
	fresh, _ := store.Load(driven.PromptAnswer)
	assert.Equal(t, "edited {context} {query}", fresh)
}

func TestPromptStore_InitFailureUsesDefaults(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultAnswerPrompt, prompt)

	_, err = store.Load("other")
	assert.Error(t, err)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, _ := newPromptStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptAnswer)
			assert.NoError(t, err)
			assert.NotEmpty(t, prompt)
		}()
	}
	wg.Wait()
}
