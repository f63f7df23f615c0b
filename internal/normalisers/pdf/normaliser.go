package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/recall/internal/adapters/driven/command"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Tool is the poppler executable used for extraction.
const Tool = "pdftotext"

// maxTitleLen is the longest first line accepted as a title.
const maxTitleLen = 200

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser extracts text from PDF documents with pdftotext.
type Normaliser struct {
	runner driven.CommandRunner
}

// New creates a PDF normaliser that runs pdftotext from PATH.
func New() *Normaliser {
	return NewWithRunner(command.NewRunner())
}

// NewWithRunner creates a PDF normaliser using the given runner.
func NewWithRunner(runner driven.CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := lookPath(Tool); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return `PDF ingestion requires pdftotext (poppler).
  macOS:          brew install poppler
  Debian/Ubuntu:  sudo apt install poppler-utils
  Fedora:         sudo dnf install poppler-utils`
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise writes the PDF to a temporary file and reads the layout text
// pdftotext prints on stdout.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	tmp, err := os.CreateTemp("", "recall-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %w", domain.ErrExtraction, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: write temp file: %w", domain.ErrExtraction, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: close temp file: %w", domain.ErrExtraction, err)
	}

	out, err := n.runner.Run(ctx, Tool, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, command.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w\n%s", domain.ErrExtraction, ErrPDFToolNotFound, InstallInstructions())
		}
		return nil, fmt.Errorf("%w: pdftotext failed: %w", domain.ErrExtraction, err)
	}

	content := strings.TrimSpace(strings.ReplaceAll(string(out), "\f", "\n"))

	metadata := copyMetadata(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]any, 2)
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "pdf"

	return &domain.Document{
		URI:      raw.URI,
		Title:    extractTitle(content, raw.URI),
		Content:  content,
		Metadata: metadata,
	}, nil
}

// extractTitle returns the first short non-empty line, else the filename.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxTitleLen {
			return line
		}
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	return strings.ReplaceAll(filename, "-", " ")
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
