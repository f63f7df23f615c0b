package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// VectorStore opens and creates the on-disk vector index of each source kind.
type VectorStore interface {
	// Open loads an existing index.
	// Returns domain.ErrIndexNotFound if nothing was ever persisted for the kind.
	Open(ctx context.Context, kind domain.SourceKind) (VectorIndex, error)

	// Create initialises a new, empty index stamped with the embedding function.
	// Creating an index that already exists returns the existing one unchanged.
	Create(ctx context.Context, kind domain.SourceKind, stamp domain.EmbeddingStamp) (VectorIndex, error)

	// Exists reports whether an index has been created for the kind.
	Exists(kind domain.SourceKind) bool
}

// VectorIndex is an opened nearest-neighbour index over embedded chunks.
type VectorIndex interface {
	// Stamp returns the embedding stamp recorded at creation.
	Stamp() domain.EmbeddingStamp

	// Add persists chunks with their embeddings. All chunks are written or none are.
	// Sequence values are assigned in insertion order.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Search returns up to k chunks ordered by ascending squared L2 distance.
	Search(ctx context.Context, query []float32, k int) (domain.RetrievalResult, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
