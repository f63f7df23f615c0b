package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := New()
		if s.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, s.ChunkSize())
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		s := New(WithChunkSize(500))
		if s.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", s.ChunkSize())
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		s := New(WithChunkSize(0))
		if s.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", s.ChunkSize())
		}
	})
}

func TestSplitter_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", New().Name())
	}
}

func TestSplit_Empty(t *testing.T) {
	if chunks := Split("", 10); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_ShorterThanWindow(t *testing.T) {
	chunks := Split("short", 100)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("expected single chunk 'short', got %q", chunks)
	}
}

func TestSplit_ExactMultiple(t *testing.T) {
	chunks := Split(strings.Repeat("a", 30), 10)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) != 10 {
			t.Errorf("chunk %d: expected length 10, got %d", i, len(c))
		}
	}
}

func TestSplit_KeepsTrailingContent(t *testing.T) {
	chunks := Split("abcdefghijk", 4)
	want := []string{"abcd", "efgh", "ijk"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestSplit_RoundTripAndCount(t *testing.T) {
	texts := []string{
		"a",
		"Annual report 2024 revenue grew 12 percent total.",
		strings.Repeat("The quick brown fox jumps over the lazy dog. ", 97),
		strings.Repeat("héllo wörld 日本語 ", 150),
	}
	sizes := []int{1, 7, 1000}

	for _, text := range texts {
		for _, size := range sizes {
			chunks := Split(text, size)

			if got := strings.Join(chunks, ""); got != text {
				t.Errorf("size %d: round trip mismatch", size)
			}

			runes := utf8.RuneCountInString(text)
			want := (runes + size - 1) / size
			if len(chunks) != want {
				t.Errorf("size %d: expected %d chunks, got %d", size, want, len(chunks))
			}

			for i, c := range chunks {
				if !utf8.ValidString(c) {
					t.Errorf("size %d: chunk %d is not valid UTF-8", size, i)
				}
				if n := utf8.RuneCountInString(c); n > size {
					t.Errorf("size %d: chunk %d has %d characters", size, i, n)
				}
			}
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("determinism ", 300)
	a := Split(text, 1000)
	b := Split(text, 1000)
	if len(a) != len(b) {
		t.Fatal("chunk counts differ between runs")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_NonPositiveSizeUsesDefault(t *testing.T) {
	text := strings.Repeat("x", DefaultChunkSize+1)
	if chunks := Split(text, 0); len(chunks) != 2 {
		t.Errorf("expected 2 chunks with default size, got %d", len(chunks))
	}
}
