package postprocessors

import (
	"testing"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/postprocessors/chunker"
)

// registryMockSplitter is a simple mock for testing registry functionality.
type registryMockSplitter struct {
	name string
}

func (m *registryMockSplitter) Name() string               { return m.name }
func (m *registryMockSplitter) Split(text string) []string { return []string{text} }

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.Names()) != 0 {
		t.Errorf("expected empty registry, got %d builders", len(r.Names()))
	}
}

func TestRegistry_Build(t *testing.T) {
	r := NewRegistry()
	r.Register("test", func(cfg map[string]any) (driven.ChunkSplitter, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &registryMockSplitter{name: name}, nil
	})

	s, err := r.Build("test", map[string]any{"name": "custom"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Name() != "custom" {
		t.Errorf("expected name 'custom', got '%s'", s.Name())
	}
}

func TestRegistry_Build_Unknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Build("missing", nil); err == nil {
		t.Error("expected error for unknown splitter")
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	if !r.Has("chunker") {
		t.Fatal("expected chunker to be registered")
	}
	if names := r.Names(); len(names) != 1 || names[0] != "chunker" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestNewDefaultSplitter(t *testing.T) {
	tests := []struct {
		name string
		size int
		want int
	}{
		{"configured size", 250, 250},
		{"zero falls back to default", 0, chunker.DefaultChunkSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewDefaultSplitter(tt.size)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			c, ok := s.(*chunker.Splitter)
			if !ok {
				t.Fatalf("expected *chunker.Splitter, got %T", s)
			}
			if c.ChunkSize() != tt.want {
				t.Errorf("expected chunk size %d, got %d", tt.want, c.ChunkSize())
			}
		})
	}
}

func TestGetIntFromConfig(t *testing.T) {
	cfg := map[string]any{"a": 1, "b": int64(2), "c": float64(3), "d": "4"}

	if getIntFromConfig(cfg, "a") != 1 || getIntFromConfig(cfg, "b") != 2 || getIntFromConfig(cfg, "c") != 3 {
		t.Error("numeric conversions failed")
	}
	if getIntFromConfig(cfg, "d") != 0 || getIntFromConfig(cfg, "missing") != 0 {
		t.Error("expected 0 for non-numeric or missing keys")
	}
}
