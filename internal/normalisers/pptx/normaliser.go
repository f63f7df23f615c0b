package pptx

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/normalisers/ooxml"
)

// MIMEType is the PowerPoint presentation content type.
const MIMEType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PPTX presentations.
type Normaliser struct{}

// New creates a new PPTX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise returns the text of every slide in slide order, slides
// separated by a blank line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	pkg, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	type slide struct {
		num  int
		name string
	}
	var slides []slide
	for _, name := range pkg.Names() {
		if m := slidePart.FindStringSubmatch(name); m != nil {
			num, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{num: num, name: name})
		}
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: presentation has no slides", domain.ErrExtraction)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	texts := make([]string, 0, len(slides))
	for _, s := range slides {
		data, err := pkg.Read(s.name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
		}
		text, err := ooxml.Text(data)
		if err != nil {
			return nil, fmt.Errorf("%w: slide %d: %w", domain.ErrExtraction, s.num, err)
		}
		if text != "" {
			texts = append(texts, text)
		}
	}

	title := pkg.Title()
	if title == "" {
		name := filepath.Base(raw.URI)
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	metadata := make(map[string]any, len(raw.Metadata)+3)
	for k, v := range raw.Metadata {
		metadata[k] = v
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "pptx"
	metadata["slides"] = len(slides)

	return &domain.Document{
		URI:      raw.URI,
		Title:    title,
		Content:  strings.Join(texts, "\n\n"),
		Metadata: metadata,
	}, nil
}
