package postprocessors

import (
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/postprocessors/chunker"
)

// DefaultSplitter is the splitter used when none is configured.
const DefaultSplitter = "chunker"

// RegisterDefaults registers all built-in splitters with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// NewDefaultSplitter builds the fixed-window chunker with the given size.
func NewDefaultSplitter(chunkSize int) (driven.ChunkSplitter, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Build(DefaultSplitter, map[string]any{"chunk_size": chunkSize})
}

// buildChunker creates a chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
func buildChunker(cfg map[string]any) (driven.ChunkSplitter, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
