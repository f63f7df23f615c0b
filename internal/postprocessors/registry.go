// Package postprocessors builds the text processing stages used during ingestion.
package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// BuilderFunc creates a ChunkSplitter from generic config.
// Config is a map of splitter-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.ChunkSplitter, error)

// Registry maps splitter names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new splitter registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a builder to the registry.
// Name should be unique and match the splitter's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a splitter by name with the given config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.ChunkSplitter, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown splitter: %s", name)
	}
	return builder(cfg)
}

// Has returns true if a splitter with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered splitter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
