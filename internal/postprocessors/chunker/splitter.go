// Package chunker provides a fixed-window text splitter.
package chunker

import (
	"unicode/utf8"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// Ensure Splitter implements the interface.
var _ driven.ChunkSplitter = (*Splitter)(nil)

// Splitter cuts text into consecutive, non-overlapping windows of a fixed
// number of characters. Windows may end mid-word; the last one may be shorter.
type Splitter struct {
	chunkSize int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the window size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// New creates a new splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the splitter name.
func (s *Splitter) Name() string {
	return "chunker"
}

// ChunkSize returns the window size in characters.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Split returns the windows of text in order.
func (s *Splitter) Split(text string) []string {
	return Split(text, s.chunkSize)
}

// Split cuts text into windows of at most maxLen characters (runes).
// Concatenating the result reproduces text, and for non-empty text the
// number of windows is ceil(characters / maxLen).
func Split(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}

	total := utf8.RuneCountInString(text)
	chunks := make([]string, 0, (total+maxLen-1)/maxLen)

	start := 0
	count := 0
	for i := range text {
		if count == maxLen {
			chunks = append(chunks, text[start:i])
			start = i
			count = 0
		}
		count++
	}
	chunks = append(chunks, text[start:])

	return chunks
}
