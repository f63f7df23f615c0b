package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// IngestionService ingests content into the per-kind indexes.
// Every method returns a non-nil outcome; failures are carried in it.
type IngestionService interface {
	// IngestDocument extracts and ingests a PDF, DOCX, PPTX, HTML, Markdown or text file.
	IngestDocument(ctx context.Context, path string) *domain.IngestOutcome

	// IngestURL scrapes the visible text of a web page.
	IngestURL(ctx context.Context, url string) *domain.IngestOutcome

	// IngestVideo transcribes a local video file.
	IngestVideo(ctx context.Context, path string) *domain.IngestOutcome

	// IngestYouTube downloads, transcribes and ingests a YouTube video.
	IngestYouTube(ctx context.Context, url string) *domain.IngestOutcome

	// Stats summarises every source kind.
	Stats(ctx context.Context) ([]domain.SourceStats, error)
}
