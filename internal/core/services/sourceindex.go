package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// SourceIndex owns everything persisted for one source kind: its vector
// index and its fingerprint ledger. Writes for a kind are serialised
// through the Locker so the index and ledger never disagree.
type SourceIndex struct {
	kind      domain.SourceKind
	store     driven.VectorStore
	ledger    driven.DedupLedger
	embedder  driven.EmbeddingService
	splitter  driven.ChunkSplitter
	locker    driven.Locker
	minLength int
}

// NewSourceIndex creates the index for a single source kind.
// The embedder may be nil, in which case ingest and query fail with
// domain.ErrEmbeddingUnavailable.
func NewSourceIndex(
	kind domain.SourceKind,
	store driven.VectorStore,
	ledger driven.DedupLedger,
	embedder driven.EmbeddingService,
	splitter driven.ChunkSplitter,
	locker driven.Locker,
) *SourceIndex {
	return &SourceIndex{
		kind:      kind,
		store:     store,
		ledger:    ledger,
		embedder:  embedder,
		splitter:  splitter,
		locker:    locker,
		minLength: kind.MinContentLength(),
	}
}

// Kind returns the source kind this index serves.
func (s *SourceIndex) Kind() domain.SourceKind {
	return s.kind
}

// MinLength returns the minimum number of characters, after trimming,
// that content must have to be ingested.
func (s *SourceIndex) MinLength() int {
	return s.minLength
}

// Acceptable reports whether text is long enough to be ingested.
func (s *SourceIndex) Acceptable(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= s.minLength
}

// IsDuplicate reports whether the fingerprint has already been ingested.
func (s *SourceIndex) IsDuplicate(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	ok, err := s.ledger.Contains(ctx, fp)
	if err != nil {
		return false, fmt.Errorf("%w: reading %s ledger: %w", domain.ErrPersistence, s.kind, err)
	}
	return ok, nil
}

// Ingest splits, embeds and stores text, then records its fingerprint.
// It returns the number of chunks written. The ledger is re-checked under
// the write lock, so a concurrent ingest of the same content yields
// domain.ErrDuplicateContent rather than a second copy.
func (s *SourceIndex) Ingest(
	ctx context.Context, text string, prov domain.Provenance, fp domain.Fingerprint,
) (int, error) {
	if !s.Acceptable(text) {
		return 0, fmt.Errorf("%w: %s content shorter than %d characters",
			domain.ErrEmptyContent, s.kind, s.minLength)
	}
	if s.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}

	unlock, err := s.locker.Lock(ctx, s.kind)
	if err != nil {
		return 0, fmt.Errorf("%w: locking %s index: %w", domain.ErrPersistence, s.kind, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			logger.Warn("Failed to release %s lock: %v", s.kind, err)
		}
	}()

	dup, err := s.IsDuplicate(ctx, fp)
	if err != nil {
		return 0, err
	}
	if dup {
		return 0, domain.ErrDuplicateContent
	}

	windows := s.splitter.Split(text)
	logger.Debug("Split %s into %d chunks", prov.SourceID, len(windows))
	if len(windows) == 0 {
		return 0, domain.ErrEmptyContent
	}

	vectors, err := s.embedder.EmbedBatch(ctx, windows)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(windows) {
		return 0, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingUnavailable, len(vectors), len(windows))
	}

	stamp := domain.EmbeddingStamp{Model: s.embedder.ModelName(), Dimensions: len(vectors[0])}
	idx, err := s.openOrCreate(ctx, stamp)
	if err != nil {
		return 0, err
	}
	defer idx.Close()

	if !idx.Stamp().Matches(stamp) {
		return 0, fmt.Errorf("%w: %s index built with %s, embedder is %s",
			domain.ErrEmbeddingMismatch, s.kind, idx.Stamp(), stamp)
	}

	chunks := make([]domain.Chunk, len(windows))
	for i, w := range windows {
		chunks[i] = domain.Chunk{
			Kind:        s.kind,
			SourceID:    prov.SourceID,
			Fingerprint: fp,
			Position:    i,
			Content:     w,
			Embedding:   vectors[i],
		}
	}

	if err := idx.Add(ctx, chunks); err != nil {
		return 0, fmt.Errorf("%w: writing %s index: %w", domain.ErrPersistence, s.kind, err)
	}

	if err := s.ledger.Add(ctx, fp); err != nil {
		// Chunks are already durable; a retry would duplicate them.
		logger.Warn("Indexed %s but failed to record fingerprint %s: %v", prov.SourceID, fp.Short(), err)
		return len(chunks), fmt.Errorf("%w: recording %s fingerprint: %w", domain.ErrPersistence, s.kind, err)
	}

	logger.Debug("Persisted %d chunks for %s in %s", len(chunks), prov.SourceID, s.kind)
	return len(chunks), nil
}

// Query returns up to k chunks whose distance to text is strictly below
// threshold, nearest first. A kind that has never been written returns
// domain.ErrIndexNotFound.
func (s *SourceIndex) Query(
	ctx context.Context, text string, k int, threshold float64,
) (domain.RetrievalResult, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	idx, err := s.store.Open(ctx, s.kind)
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	want := domain.EmbeddingStamp{Model: s.embedder.ModelName(), Dimensions: len(vec)}
	if !idx.Stamp().Matches(want) {
		return nil, fmt.Errorf("%w: %s index built with %s, embedder is %s",
			domain.ErrEmbeddingMismatch, s.kind, idx.Stamp(), want)
	}

	hits, err := idx.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("searching %s index: %w", s.kind, err)
	}

	admitted := make(domain.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		if h.Distance < threshold {
			admitted = append(admitted, h)
		}
	}
	logger.Debug("%s: %d of %d hits under threshold %.2f", s.kind, len(admitted), len(hits), threshold)
	return admitted, nil
}

// Stats reports the size of the index and ledger.
func (s *SourceIndex) Stats(ctx context.Context) (domain.SourceStats, error) {
	stats := domain.SourceStats{Kind: s.kind}

	n, err := s.ledger.Len(ctx)
	if err != nil {
		return stats, fmt.Errorf("%w: reading %s ledger: %w", domain.ErrPersistence, s.kind, err)
	}
	stats.Fingerprints = n

	idx, err := s.store.Open(ctx, s.kind)
	if errors.Is(err, domain.ErrIndexNotFound) {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}
	defer idx.Close()

	stats.IndexExists = true
	stats.Stamp = idx.Stamp()
	if stats.Chunks, err = idx.Count(ctx); err != nil {
		return stats, fmt.Errorf("counting %s chunks: %w", s.kind, err)
	}
	return stats, nil
}

func (s *SourceIndex) openOrCreate(ctx context.Context, stamp domain.EmbeddingStamp) (driven.VectorIndex, error) {
	idx, err := s.store.Open(ctx, s.kind)
	if err == nil {
		return idx, nil
	}
	if !errors.Is(err, domain.ErrIndexNotFound) {
		return nil, fmt.Errorf("%w: opening %s index: %w", domain.ErrPersistence, s.kind, err)
	}

	logger.Info("Creating %s index (%s)", s.kind, stamp)
	idx, err = s.store.Create(ctx, s.kind, stamp)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s index: %w", domain.ErrPersistence, s.kind, err)
	}
	return idx, nil
}
