package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/recall/internal/adapters/driving/watch"
)

func TestServeCmd_Flags(t *testing.T) {
	addr := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, "127.0.0.1:8080", addr.DefValue)
	assert.NotNil(t, serveCmd.Flags().Lookup("max-upload"))
	assert.NotNil(t, serveCmd.Flags().Lookup("timeout"))
	assert.Contains(t, serveCmd.Long, "/v1/ask")
}

func TestServeCmd_RequiresServices(t *testing.T) {
	oldIngest, oldAnswer := ingestService, answerService
	ingestService, answerService = nil, nil
	defer func() { ingestService, answerService = oldIngest, oldAnswer }()

	_, err := execute(t, "serve")
	assert.True(t, errors.Is(err, httpapi.ErrMissingAnswerService))
}

func TestMCPServeCmd_HasPortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
	assert.Contains(t, mcpServeCmd.Long, "recall mcp serve")
}

func TestMCPServeCmd_RequiresServices(t *testing.T) {
	oldIngest, oldAnswer := ingestService, answerService
	ingestService, answerService = nil, nil
	defer func() { ingestService, answerService = oldIngest, oldAnswer }()

	_, err := execute(t, "mcp", "serve")
	assert.Error(t, err)
}

func TestWatchCmd_Flags(t *testing.T) {
	flag := watchCmd.Flags().Lookup("debounce")
	require.NotNil(t, flag)
	assert.Equal(t, watch.DefaultDebounce.String(), flag.DefValue)
	assert.NotNil(t, watchCmd.Flags().Lookup("existing"))
}

func TestWatchCmd_RejectsMissingDir(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "watch", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot watch")
}

func TestWatchCmd_RejectsFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	file := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := execute(t, "watch", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestWatchCmd_IngestsExistingFiles(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer func() { watchExisting = false }()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# Notes"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// Subcommands keep the context of their first run, so set it directly.
	watchCmd.SetContext(ctx)
	rootCmd.SetArgs([]string{"watch", "--existing", dir})
	defer func() {
		rootCmd.SetArgs(nil)
		watchCmd.SetContext(context.Background())
	}()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, []string{"document:" + filepath.Join(dir, "notes.md")}, ts.ingest.calls)
	assert.Contains(t, out.String(), "Document successfully embedded")
}
