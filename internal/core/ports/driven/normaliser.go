package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// Normaliser extracts text from one family of document formats.
// Each normaliser handles specific MIME types (e.g., PDF, DOCX).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the document text.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}
