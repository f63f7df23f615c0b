package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// TextExtractor extracts text from a document file.
// Returns domain.ErrUnsupportedFormat when no normaliser handles the file type.
type TextExtractor interface {
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// PageFetcher fetches a web page and returns its visible text.
// Failures wrap domain.ErrFetch.
type PageFetcher interface {
	FetchVisibleText(ctx context.Context, url string) (*domain.Document, error)
}

// Transcriber converts an audio or video file to text.
// Failures wrap domain.ErrTranscription.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (string, error)
}

// AudioDownloader downloads the audio track of a remote video into dir.
// The caller owns the returned file and must remove it.
// Failures wrap domain.ErrDownload.
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, videoURL, dir string) (string, error)
}

// WebSearcher answers a query from live internet search.
// Failures wrap domain.ErrSearchFallback.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// CommandRunner executes an external program and returns its combined output.
// Adapters that shell out (pdftotext, whisper, yt-dlp) take one so tests
// can substitute it.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
