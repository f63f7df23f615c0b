package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestVectorStore_OpenBeforeCreate(t *testing.T) {
	store := NewVectorStore()

	_, err := store.Open(context.Background(), domain.SourceDocuments)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	assert.False(t, store.Exists(domain.SourceDocuments))
}

func TestVectorStore_SearchOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()
	stamp := domain.EmbeddingStamp{Model: "m", Dimensions: 2}

	idx, err := store.Create(ctx, domain.SourceScraped, stamp)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		{Content: "far", Embedding: []float32{3, 0}},
		{Content: "near", Embedding: []float32{0.1, 0}},
		{Content: "mid", Embedding: []float32{1, 0}},
	}))

	hits, err := idx.Search(ctx, []float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, []string{"near", "mid"}, hits.Contents())
	assert.InDelta(t, 0.01, hits[0].Distance, 1e-6)
	assert.Equal(t, int64(2), hits[0].Chunk.Sequence)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	reopened, err := store.Open(ctx, domain.SourceScraped)
	require.NoError(t, err)
	assert.Equal(t, stamp, reopened.Stamp())
}

func TestLedgerProvider_PerKind(t *testing.T) {
	ctx := context.Background()
	p := NewLedgerProvider()

	docs, err := p.Ledger(domain.SourceDocuments)
	require.NoError(t, err)
	video, err := p.Ledger(domain.SourceVideo)
	require.NoError(t, err)

	require.NoError(t, docs.Add(ctx, "abc"))
	require.NoError(t, docs.Add(ctx, "abc"))

	ok, _ := docs.Contains(ctx, "abc")
	assert.True(t, ok)
	ok, _ = video.Contains(ctx, "abc")
	assert.False(t, ok)

	n, _ := docs.Len(ctx)
	assert.Equal(t, 1, n)

	again, _ := p.Ledger(domain.SourceDocuments)
	assert.Same(t, docs, again)
}

func TestLocker_SerialisesPerKind(t *testing.T) {
	l := NewLocker()

	unlock, err := l.Lock(context.Background(), domain.SourceVideo)
	require.NoError(t, err)

	// A different kind is independent.
	other, err := l.Lock(context.Background(), domain.SourceDocuments)
	require.NoError(t, err)
	require.NoError(t, other())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, domain.SourceVideo)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock())
	require.NoError(t, unlock(), "unlock is idempotent")

	again, err := l.Lock(context.Background(), domain.SourceVideo)
	require.NoError(t, err)
	require.NoError(t, again())
}

func TestHistoryStore_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore()

	for _, q := range []string{"one", "two", "three"} {
		_, err := s.SaveAnswer(ctx, domain.HistoryEntry{Query: q})
		require.NoError(t, err)
	}
	_, _ = s.SaveIngest(ctx, domain.IngestRecord{SourceID: "a.pdf"})

	got, err := s.ListAnswers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].Query)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, "two", got[1].Query)

	all, _ := s.ListAnswers(ctx, 0)
	assert.Len(t, all, 3)

	ingests, _ := s.ListIngests(ctx, 10)
	require.Len(t, ingests, 1)
	assert.Equal(t, "a.pdf", ingests[0].SourceID)
}
