package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore keeps one brute-force index per source kind in memory.
type VectorStore struct {
	mu      sync.Mutex
	indexes map[domain.SourceKind]*vectorIndex
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{indexes: make(map[domain.SourceKind]*vectorIndex)}
}

// Open returns the index for kind, or domain.ErrIndexNotFound.
func (s *VectorStore) Open(_ context.Context, kind domain.SourceKind) (driven.VectorIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[kind]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}
	return idx, nil
}

// Create makes a new empty index stamped with the embedder identity.
// An existing index is returned unchanged.
func (s *VectorStore) Create(
	_ context.Context, kind domain.SourceKind, stamp domain.EmbeddingStamp,
) (driven.VectorIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[kind]; ok {
		return idx, nil
	}
	idx := &vectorIndex{stamp: stamp}
	s.indexes[kind] = idx
	return idx, nil
}

// Exists reports whether an index has been created for kind.
func (s *VectorStore) Exists(kind domain.SourceKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.indexes[kind]
	return ok
}

type vectorIndex struct {
	mu     sync.RWMutex
	stamp  domain.EmbeddingStamp
	chunks []domain.Chunk
	seq    int64
}

func (v *vectorIndex) Stamp() domain.EmbeddingStamp {
	return v.stamp
}

func (v *vectorIndex) Add(_ context.Context, chunks []domain.Chunk) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range chunks {
		v.seq++
		c.Sequence = v.seq
		if c.ID == "" {
			c.ID = string(c.Fingerprint) + ":" + strconv.Itoa(c.Position)
		}
		v.chunks = append(v.chunks, c)
	}
	return nil
}

func (v *vectorIndex) Search(_ context.Context, query []float32, k int) (domain.RetrievalResult, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	result := make(domain.RetrievalResult, 0, len(v.chunks))
	for _, c := range v.chunks {
		result = append(result, domain.ScoredChunk{Chunk: c, Distance: domain.SquaredL2(query, c.Embedding)})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Distance < result[j].Distance
	})
	if k > 0 && len(result) > k {
		result = result[:k]
	}
	return result, nil
}

func (v *vectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.chunks), nil
}

// Close is a no-op; the index lives as long as its store.
func (v *vectorIndex) Close() error {
	return nil
}
