package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("invalid ][}{"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("llm.model", "mistral"))
	require.NoError(t, store.Set("retrieval.k", 4))
	require.NoError(t, store.Set("retrieval.threshold", 0.6))
	require.NoError(t, store.Set("storage.keep_uploads", true))
	require.NoError(t, store.Set("paths", []string{"a", "b"}))

	assert.Equal(t, "mistral", store.GetString("llm.model"))
	assert.Equal(t, 4, store.GetInt("retrieval.k"))
	assert.InDelta(t, 0.6, store.GetFloat("retrieval.threshold"), 1e-9)
	assert.InDelta(t, 4.0, store.GetFloat("retrieval.k"), 1e-9, "integers convert to float")
	assert.True(t, store.GetBool("storage.keep_uploads"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("paths"))

	// Wrong types and missing keys yield zero values.
	assert.Empty(t, store.GetString("retrieval.k"))
	assert.Zero(t, store.GetInt("llm.model"))
	assert.Zero(t, store.GetFloat("llm.model"))
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsAsNestedTables(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("retrieval.k", 6))
	require.NoError(t, store.Set("retrieval.threshold", 0.45))
	require.NoError(t, store.Set("embedding.provider", "ollama"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[retrieval]")
	assert.Contains(t, string(data), "[embedding]")

	reloaded, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Equal(t, 6, reloaded.GetInt("retrieval.k"))
	assert.InDelta(t, 0.45, reloaded.GetFloat("retrieval.threshold"), 1e-9)
	assert.Equal(t, "ollama", reloaded.GetString("embedding.provider"))
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := "[llm]\nprovider = \"together\"\ntemperature = 0.4\n\n[scraper]\ntimeout = \"10s\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "together", store.GetString("llm.provider"))
	assert.InDelta(t, 0.4, store.GetFloat("llm.temperature"), 1e-9)
	assert.Equal(t, "10s", store.GetString("scraper.timeout"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.NoFileExists(t, store.Path()+".tmp")
}

func TestConfigStore_KeyConflict(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("llm", "flat"))
	assert.Error(t, store.Set("llm.model", "x"))
}

func TestConfigStore_SaveErrors(t *testing.T) {
	store := newStore(t)
	assert.Error(t, store.Set("channel", make(chan int)), "channels cannot be marshalled")

	other := newStore(t)
	require.NoError(t, other.Set("k", "v"))
	require.NoError(t, os.Remove(other.Path()))
	require.NoError(t, os.Mkdir(other.Path(), 0700))
	assert.Error(t, other.Set("k2", "v"))
}

func TestConfigStore_LoadMissingFileResets(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, os.Remove(store.Path()))

	require.NoError(t, store.Load())
	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("retrieval.k", 4)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("retrieval.k")
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, store.GetInt("retrieval.k"))
}

func TestNestMap(t *testing.T) {
	nested, err := nestMap(map[string]any{"a.b.c": 1, "a.d": "x", "e": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}, "d": "x"},
		"e": true,
	}, nested)

	flat := flattenMap(nested, "")
	assert.Equal(t, map[string]any{"a.b.c": 1, "a.d": "x", "e": true}, flat)
}

func TestConfigStore_SetRollsBackOnSaveError(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("llm", "flat"))
	require.Error(t, store.Set("llm.model", "x"))

	_, ok := store.Get("llm.model")
	assert.False(t, ok)
	assert.NoError(t, store.Set("retrieval.k", 3), "store stays writable")
}
