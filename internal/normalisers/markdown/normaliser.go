package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document to a normalised document.
// The Content field contains the text with markdown formatting simplified.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rawContent := strings.ToValidUTF8(string(raw.Content), "\uFFFD")

	metadata := copyMetadata(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]any, 2)
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "markdown"

	return &domain.Document{
		URI:      raw.URI,
		Title:    extractMarkdownTitle(rawContent, raw.URI),
		Content:  stripMarkdown(rawContent),
		Metadata: metadata,
	}, nil
}

// extractMarkdownTitle extracts a title from the markdown content or falls back to filename.
func extractMarkdownTitle(content, uri string) string {
	// Try to find first H1 heading (# Title)
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	// Fall back to filename
	filename := filepath.Base(uri)
	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

var (
	codeBlockRe     = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe    = regexp.MustCompile("`[^`]+`")
	imageRe         = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkRe          = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingRe       = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteRe    = regexp.MustCompile(`(?m)^>\s*`)
	ruleRe          = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	bulletRe        = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedRe      = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	multiNewlinesRe = regexp.MustCompile(`\n{3,}`)
	emphasis        = strings.NewReplacer("**", "", "__", "", "*", "", "_", " ")
)

// stripMarkdown removes common markdown formatting for plain text content.
func stripMarkdown(content string) string {
	content = codeBlockRe.ReplaceAllString(content, "")
	content = inlineCodeRe.ReplaceAllString(content, "")
	content = imageRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = headingRe.ReplaceAllString(content, "")

	// Rules must go before emphasis markers are stripped.
	content = ruleRe.ReplaceAllString(content, "")
	content = emphasis.Replace(content)

	content = blockquoteRe.ReplaceAllString(content, "")
	content = bulletRe.ReplaceAllString(content, "")
	content = numberedRe.ReplaceAllString(content, "")
	content = multiNewlinesRe.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
