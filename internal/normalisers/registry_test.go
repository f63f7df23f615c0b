package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// stubNormaliser records the MIME type it was asked to normalise.
type stubNormaliser struct {
	name     string
	types    []string
	priority int
	gotMIME  string
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s *stubNormaliser) Priority() int                { return s.priority }
func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	s.gotMIME = raw.MIMEType
	return &domain.Document{URI: raw.URI, Title: s.name, Content: string(raw.Content)}, nil
}

var _ driven.Normaliser = (*stubNormaliser)(nil)

func TestRegistry_HighestPriorityWins(t *testing.T) {
	low := &stubNormaliser{name: "low", types: []string{"text/plain"}, priority: 5}
	high := &stubNormaliser{name: "high", types: []string{"text/plain"}, priority: 50}
	r := NewRegistry(low, high)

	doc, err := r.Extract(context.Background(), &domain.RawDocument{URI: "/a.txt", Content: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, "high", doc.Title)
	assert.Equal(t, "text/plain", high.gotMIME)
}

func TestRegistry_ExplicitMIMETypeWins(t *testing.T) {
	md := &stubNormaliser{name: "md", types: []string{"text/markdown"}, priority: 50}
	r := NewRegistry(md, &stubNormaliser{name: "plain", types: []string{"text/plain"}, priority: 5})

	doc, err := r.Extract(context.Background(), &domain.RawDocument{
		URI:      "/notes.txt",
		MIMEType: "text/markdown; charset=utf-8",
		Content:  []byte("# hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "md", doc.Title)
	assert.Equal(t, "text/markdown", md.gotMIME)
}

func TestRegistry_TextFallback(t *testing.T) {
	plain := &stubNormaliser{name: "plain", types: []string{"text/plain"}, priority: 5}
	r := NewRegistry(plain)

	n, ok := r.Lookup("text/x-unknown")
	require.True(t, ok)
	assert.Same(t, plain, n)

	_, ok = r.Lookup("image/png")
	assert.False(t, ok)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry(&stubNormaliser{types: []string{"text/plain"}})

	_, err := r.Extract(context.Background(), &domain.RawDocument{
		URI:     "/photo.png",
		Content: []byte("\x89PNG\r\n\x1a\n"),
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = r.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		uri      string
		content  string
		expected string
	}{
		{"/a/report.PDF", "", "application/pdf"},
		{"/a/deck.pptx", "", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
		{"/a/readme.md", "", "text/markdown"},
		{"/a/page.html", "", "text/html"},
		{"/a/main.go", "", "text/x-go"},
		{"/a/noext", "just some words", "text/plain"},
		{"/a/noext", "<!DOCTYPE html><html></html>", "text/html"},
		{"/a/noext", "%PDF-1.7 binary", "application/pdf"},
	}
	for _, tc := range tests {
		t.Run(tc.uri+"/"+tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectMIMEType(tc.uri, []byte(tc.content)))
		})
	}
}

func TestDefault_RegistersBuiltins(t *testing.T) {
	r := Default(nil)
	types := r.MIMETypes()

	for _, mt := range []string{"application/pdf", "text/html", "text/markdown", "text/plain"} {
		assert.Contains(t, types, mt)
	}

	doc, err := r.Extract(context.Background(), &domain.RawDocument{
		URI:     "/tmp/guide.md",
		Content: []byte("# Install Guide\n\nRun the **installer** twice."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Install Guide", doc.Title)
	assert.Equal(t, "Install Guide\n\nRun the installer twice.", doc.Content)
}
