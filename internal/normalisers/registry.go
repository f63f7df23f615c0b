package normalisers

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/normalisers/docx"
	"github.com/custodia-labs/recall/internal/normalisers/html"
	"github.com/custodia-labs/recall/internal/normalisers/markdown"
	"github.com/custodia-labs/recall/internal/normalisers/pdf"
	"github.com/custodia-labs/recall/internal/normalisers/plaintext"
	"github.com/custodia-labs/recall/internal/normalisers/pptx"
)

// extensionTypes covers extensions the platform MIME table often lacks.
var extensionTypes = map[string]string{
	".pdf":      "application/pdf",
	".docx":     docx.MIMEType,
	".pptx":     pptx.MIMEType,
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".htm":      "text/html",
	".html":     "text/html",
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".csv":      "text/csv",
	".json":     "application/json",
	".xml":      "application/xml",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".java":     "text/x-java",
	".c":        "text/x-c",
	".h":        "text/x-c",
	".cpp":      "text/x-c++",
	".rb":       "text/x-ruby",
	".sh":       "text/x-shellscript",
	".sql":      "text/x-sql",
	".js":       "text/javascript",
	".ts":       "text/typescript",
	".css":      "text/css",
}

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry selects the highest-priority normaliser for a document's MIME
// type.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(ns ...driven.Normaliser) *Registry {
	r := &Registry{byMIME: make(map[string][]driven.Normaliser)}
	for _, n := range ns {
		r.Register(n)
	}
	return r
}

// Default returns a registry with every built-in normaliser. pdfRunner
// executes pdftotext; nil uses the process PATH.
func Default(pdfRunner driven.CommandRunner) *Registry {
	pdfNormaliser := pdf.New()
	if pdfRunner != nil {
		pdfNormaliser = pdf.NewWithRunner(pdfRunner)
	}
	return NewRegistry(
		pdfNormaliser,
		docx.New(),
		pptx.New(),
		html.New(),
		markdown.New(),
		plaintext.New(),
	)
}

// Register adds a normaliser under each MIME type it supports.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range n.SupportedMIMETypes() {
		list := append(r.byMIME[mt], n)
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority() > list[j].Priority() })
		r.byMIME[mt] = list
	}
}

// MIMETypes returns every registered MIME type, sorted.
func (r *Registry) MIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// Lookup returns the normaliser chosen for mimeType. Unknown text/* types
// fall back to text/plain.
func (r *Registry) Lookup(mimeType string) (driven.Normaliser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if list := r.byMIME[mimeType]; len(list) > 0 {
		return list[0], true
	}
	if strings.HasPrefix(mimeType, "text/") {
		if list := r.byMIME["text/plain"]; len(list) > 0 {
			return list[0], true
		}
	}
	return nil, false
}

// Extract normalises raw with the normaliser for its MIME type. When
// raw.MIMEType is empty it is detected from the URI extension and then
// from the content itself.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mimeType := DetectMIMEType(raw.URI, raw.Content)
	if raw.MIMEType != "" {
		mimeType = baseType(raw.MIMEType)
	}

	n, ok := r.Lookup(mimeType)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedFormat, filepath.Ext(raw.URI), mimeType)
	}
	logger.Debug("normalising %s as %s (%T)", raw.URI, mimeType, n)

	withType := *raw
	withType.MIMEType = mimeType
	return n.Normalise(ctx, &withType)
}

// DetectMIMEType guesses a MIME type from the file extension, falling back
// to content sniffing.
func DetectMIMEType(uri string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(uri))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return baseType(mt)
		}
	}
	return baseType(http.DetectContentType(content))
}

func baseType(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
