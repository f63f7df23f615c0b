package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// AnswerService answers questions from ingested content, falling back to
// live internet search.
type AnswerService interface {
	// Ask always returns an answer whose Text is either a source-tagged
	// answer or a labelled failure. Answer.Err carries the typed cause.
	Ask(ctx context.Context, query string) *domain.Answer

	// History returns recent exchanges, newest first.
	History(ctx context.Context, limit int) ([]domain.HistoryEntry, error)

	// IngestHistory returns recent ingestion attempts, newest first.
	IngestHistory(ctx context.Context, limit int) ([]domain.IngestRecord, error)
}
