package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// HistoryStore persists question/answer exchanges and ingestion attempts.
type HistoryStore interface {
	// SaveAnswer records an answered query and returns its ID.
	SaveAnswer(ctx context.Context, entry domain.HistoryEntry) (int64, error)

	// ListAnswers returns the most recent exchanges, newest first.
	ListAnswers(ctx context.Context, limit int) ([]domain.HistoryEntry, error)

	// SaveIngest records an ingestion attempt and returns its ID.
	SaveIngest(ctx context.Context, record domain.IngestRecord) (int64, error)

	// ListIngests returns the most recent ingestion attempts, newest first.
	ListIngests(ctx context.Context, limit int) ([]domain.IngestRecord, error)
}

// UploadStore keeps a copy of an ingested file under the storage base directory.
type UploadStore interface {
	// Keep copies the file at path into the upload area for kind and returns the stored path.
	// Storing a file that is already inside the upload area is a no-op.
	Keep(ctx context.Context, kind domain.SourceKind, path string) (string, error)

	// ScratchDir returns a directory for transient files such as downloaded audio.
	ScratchDir() (string, error)
}
