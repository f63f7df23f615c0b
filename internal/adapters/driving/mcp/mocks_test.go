package mcp

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer  *domain.Answer
	history []domain.HistoryEntry
	err     error
	asked   string
}

func (m *mockAnswerService) Ask(_ context.Context, query string) *domain.Answer {
	m.asked = query
	if m.answer == nil {
		return &domain.Answer{Query: query}
	}
	return m.answer
}

func (m *mockAnswerService) History(_ context.Context, _ int) ([]domain.HistoryEntry, error) {
	return m.history, m.err
}

func (m *mockAnswerService) IngestHistory(_ context.Context, _ int) ([]domain.IngestRecord, error) {
	return nil, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	outcome *domain.IngestOutcome
	stats   []domain.SourceStats
	err     error
	lastURL string
}

func (m *mockIngestionService) result(via domain.IngestVia, source string) *domain.IngestOutcome {
	m.lastURL = source
	if m.outcome != nil {
		return m.outcome
	}
	return &domain.IngestOutcome{Via: via, Kind: via.Kind(), SourceID: source, State: domain.StatePersisted, Chunks: 1}
}

func (m *mockIngestionService) IngestDocument(_ context.Context, path string) *domain.IngestOutcome {
	return m.result(domain.ViaDocument, path)
}

func (m *mockIngestionService) IngestURL(_ context.Context, url string) *domain.IngestOutcome {
	return m.result(domain.ViaURL, url)
}

func (m *mockIngestionService) IngestVideo(_ context.Context, path string) *domain.IngestOutcome {
	return m.result(domain.ViaVideo, path)
}

func (m *mockIngestionService) IngestYouTube(_ context.Context, url string) *domain.IngestOutcome {
	return m.result(domain.ViaYouTube, url)
}

func (m *mockIngestionService) Stats(_ context.Context) ([]domain.SourceStats, error) {
	return m.stats, m.err
}

func newTestServer(answer *mockAnswerService, ingest *mockIngestionService) (*Server, error) {
	return NewServer(&Ports{Answer: answer, Ingest: ingest})
}
