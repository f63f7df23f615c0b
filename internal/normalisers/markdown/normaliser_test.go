package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func normalise(t *testing.T, uri, content string) *domain.Document {
	t.Helper()
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      uri,
		MIMEType: "text/markdown",
		Content:  []byte(content),
		Metadata: map[string]any{"uploaded_as": "notes.md"},
	})
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

func TestNormaliser_Registration(t *testing.T) {
	n := New()
	assert.ElementsMatch(t, []string{"text/markdown", "text/x-markdown"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_ReleaseNotes(t *testing.T) {
	doc := normalise(t, "/uploads/release-notes_2024.md", `# Annual Report

Revenue grew **12 percent** in 2024, see [the summary](https://example.com/summary).

---

![chart](chart.png)

> Growth was driven by *new customers*.

- Europe
- Asia
1. First quarter

`+"```go\nfmt.Println(\"ignored\")\n```"+`
Run `+"`recall ask`"+` to query it.



The end.`)

	assert.Equal(t, "Annual Report", doc.Title)
	assert.Equal(t, "/uploads/release-notes_2024.md", doc.URI)

	for _, want := range []string{
		"Annual Report", "Revenue grew 12 percent in 2024, see the summary.",
		"Growth was driven by new customers.", "Europe", "Asia", "First quarter", "The end.",
	} {
		assert.Contains(t, doc.Content, want)
	}
	for _, gone := range []string{"**", "](", "![", "---", "> ", "- Europe", "1. ", "ignored", "recall ask", "\n\n\n"} {
		assert.NotContains(t, doc.Content, gone)
	}

	assert.Equal(t, "markdown", doc.Metadata["format"])
	assert.Equal(t, "text/markdown", doc.Metadata["mime_type"])
	assert.Equal(t, "notes.md", doc.Metadata["uploaded_as"])
}

func TestNormalise_TitleFallsBackToFilename(t *testing.T) {
	tests := []struct {
		uri     string
		content string
		want    string
	}{
		{"/docs/quarterly_report-q3.md", "## Only a subheading", "quarterly report q3"},
		{"README", "plain text", "README"},
		{"/docs/a.md", "text\n  #  Indented Title  \n", "Indented Title"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, normalise(t, tt.uri, tt.content).Title)
		})
	}
}

func TestNormalise_RulesStrippedBeforeEmphasis(t *testing.T) {
	doc := normalise(t, "a.md", "above\n***\n___\nbelow")

	assert.NotContains(t, doc.Content, "*")
	assert.NotContains(t, doc.Content, "_")
	assert.Contains(t, doc.Content, "above")
	assert.Contains(t, doc.Content, "below")
}

func TestNormalise_InvalidUTF8IsReplaced(t *testing.T) {
	doc := normalise(t, "a.md", "caf\xe9 menu")

	assert.Equal(t, "caf� menu", doc.Content)
}

func TestNormalise_DoesNotMutateInputMetadata(t *testing.T) {
	meta := map[string]any{"k": "v"}
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI: "a.md", MIMEType: "text/markdown", Content: []byte("x"), Metadata: meta,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"k": "v"}, meta)
}
