package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore keeps answers and ingestion records in memory.
type HistoryStore struct {
	mu      sync.RWMutex
	answers []domain.HistoryEntry
	ingests []domain.IngestRecord
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// SaveAnswer appends an answer and returns its id.
func (s *HistoryStore) SaveAnswer(_ context.Context, entry domain.HistoryEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = int64(len(s.answers) + 1)
	s.answers = append(s.answers, entry)
	return entry.ID, nil
}

// ListAnswers returns up to limit answers, newest first. A limit of zero returns all.
func (s *HistoryStore) ListAnswers(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.answers, limit), nil
}

// SaveIngest appends an ingestion record and returns its id.
func (s *HistoryStore) SaveIngest(_ context.Context, record domain.IngestRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = int64(len(s.ingests) + 1)
	s.ingests = append(s.ingests, record)
	return record.ID, nil
}

// ListIngests returns up to limit ingestion records, newest first.
func (s *HistoryStore) ListIngests(_ context.Context, limit int) ([]domain.IngestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.ingests, limit), nil
}

func newestFirst[T any](items []T, limit int) []T {
	n := len(items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, 0, n)
	for i := len(items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, items[i])
	}
	return out
}
